package scheduling

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/clinic/clinic/internal/platform/storage"
)

// CollectionName is the mongo collection holding the ledger.
const CollectionName = "appointments"

type appointmentDoc struct {
	ID          string    `bson:"_id"`
	DoctorID    string    `bson:"doctorId"`
	StudentID   string    `bson:"studentId"`
	DoctorName  string    `bson:"doctorName"`
	StudentName string    `bson:"studentName"`
	Reason      string    `bson:"reason"`
	Date        string    `bson:"date"`
	Time        string    `bson:"time"`
	Status      string    `bson:"status"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func toDoc(a *Appointment) appointmentDoc {
	return appointmentDoc{
		ID:          a.ID.String(),
		DoctorID:    a.DoctorID,
		StudentID:   a.StudentID,
		DoctorName:  a.DoctorName,
		StudentName: a.StudentName,
		Reason:      a.Reason,
		Date:        a.Date,
		Time:        a.Time,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func (d *appointmentDoc) appointment() (*Appointment, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	return &Appointment{
		ID:          id,
		DoctorID:    d.DoctorID,
		StudentID:   d.StudentID,
		DoctorName:  d.DoctorName,
		StudentName: d.StudentName,
		Reason:      d.Reason,
		Date:        d.Date,
		Time:        d.Time,
		Status:      Status(d.Status),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

// RepoMongo is the document-store ledger.
type RepoMongo struct {
	coll *mongo.Collection
}

func NewRepoMongo(db *mongo.Database) *RepoMongo {
	return &RepoMongo{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the active-slot unique index and the history
// lookup indexes. Partial indexes cannot express $ne, so the active set is
// spelled out with $in.
func (r *RepoMongo) EnsureIndexes(ctx context.Context) error {
	active := bson.M{"status": bson.M{"$in": bson.A{string(StatusScheduled), string(StatusCompleted)}}}
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "doctorId", Value: 1}, {Key: "date", Value: 1}, {Key: "time", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(active).
				SetName("active_slot_unique"),
		},
		{
			Keys:    bson.D{{Key: "studentId", Value: 1}, {Key: "date", Value: -1}, {Key: "time", Value: -1}},
			Options: options.Index().SetName("student_history"),
		},
		{
			Keys:    bson.D{{Key: "doctorId", Value: 1}, {Key: "date", Value: -1}, {Key: "time", Value: -1}},
			Options: options.Index().SetName("doctor_history"),
		},
	})
	if err != nil {
		return storage.Wrap("create appointment indexes", err)
	}
	return nil
}

func (r *RepoMongo) Insert(ctx context.Context, a *Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now
	if _, err := r.coll.InsertOne(ctx, toDoc(a)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlotConflict
		}
		return storage.Wrap("insert appointment", err)
	}
	return nil
}

func (r *RepoMongo) FindActive(ctx context.Context, doctorID, date, tm string) (*Appointment, error) {
	var doc appointmentDoc
	err := r.coll.FindOne(ctx, bson.M{
		"doctorId": doctorID,
		"date":     date,
		"time":     tm,
		"status":   bson.M{"$ne": string(StatusCancelled)},
	}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, storage.Wrap("find active appointment", err)
	}
	return doc.appointment()
}

func (r *RepoMongo) TakenTimes(ctx context.Context, doctorID, date string) ([]string, error) {
	findOptions := options.Find().
		SetProjection(bson.M{"time": 1}).
		SetSort(bson.D{{Key: "time", Value: 1}})
	cursor, err := r.coll.Find(ctx, bson.M{
		"doctorId": doctorID,
		"date":     date,
		"status":   bson.M{"$ne": string(StatusCancelled)},
	}, findOptions)
	if err != nil {
		return nil, storage.Wrap("taken times", err)
	}
	defer cursor.Close(ctx)

	var times []string
	for cursor.Next(ctx) {
		var row struct {
			Time string `bson:"time"`
		}
		if err := cursor.Decode(&row); err != nil {
			return nil, storage.Wrap("decode taken time", err)
		}
		times = append(times, row.Time)
	}
	if err := cursor.Err(); err != nil {
		return nil, storage.Wrap("taken times", err)
	}
	return times, nil
}

func (r *RepoMongo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	var doc appointmentDoc
	err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrAppointmentNotFound
	}
	if err != nil {
		return nil, storage.Wrap("get appointment", err)
	}
	return doc.appointment()
}

func (r *RepoMongo) SetStatus(ctx context.Context, id uuid.UUID, to Status, from ...Status) (*Appointment, error) {
	guard := make(bson.A, len(from))
	for i, s := range from {
		guard[i] = string(s)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc appointmentDoc
	err := r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": id.String(), "status": bson.M{"$in": guard}},
		bson.M{"$set": bson.M{"status": string(to), "updatedAt": time.Now().UTC()}},
		opts,
	).Decode(&doc)
	if err == nil {
		return doc.appointment()
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, storage.Wrap("set appointment status", err)
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, ErrInvalidTransition
}

func (r *RepoMongo) ListByStudent(ctx context.Context, studentID string, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, bson.M{"studentId": studentID}, limit, offset)
}

func (r *RepoMongo) ListByDoctor(ctx context.Context, doctorID string, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, bson.M{"doctorId": doctorID}, limit, offset)
}

func (r *RepoMongo) List(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return r.list(ctx, bson.M{}, limit, offset)
}

func (r *RepoMongo) list(ctx context.Context, query bson.M, limit, offset int) ([]*Appointment, int, error) {
	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, storage.Wrap("count appointments", err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "time", Value: -1}, {Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}
	cursor, err := r.coll.Find(ctx, query, findOptions)
	if err != nil {
		return nil, 0, storage.Wrap("list appointments", err)
	}
	defer cursor.Close(ctx)

	items := []*Appointment{}
	for cursor.Next(ctx) {
		var doc appointmentDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, storage.Wrap("decode appointment", err)
		}
		a, err := doc.appointment()
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, storage.Wrap("iterate appointments", err)
	}
	return items, int(total), nil
}

func (r *RepoMongo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return storage.Wrap("delete appointment", err)
	}
	if res.DeletedCount == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (r *RepoMongo) CompleteElapsed(ctx context.Context, date, tm string) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{
			"status": string(StatusScheduled),
			"$or": bson.A{
				bson.M{"date": bson.M{"$lt": date}},
				bson.M{"date": date, "time": bson.M{"$lt": tm}},
			},
		},
		bson.M{"$set": bson.M{"status": string(StatusCompleted), "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return 0, storage.Wrap("complete elapsed appointments", err)
	}
	return res.ModifiedCount, nil
}
