package doctor

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/clinic/clinic/internal/platform/storage"
)

// CollectionName is the mongo collection holding doctor profiles.
const CollectionName = "doctors"

type doctorDoc struct {
	DoctorID         string    `bson:"doctorId"`
	Name             string    `bson:"name"`
	Specialization   string    `bson:"specialization,omitempty"`
	MorningStart     string    `bson:"morningStart,omitempty"`
	MorningEnd       string    `bson:"morningEnd,omitempty"`
	EveningStart     string    `bson:"eveningStart,omitempty"`
	EveningEnd       string    `bson:"eveningEnd,omitempty"`
	UnavailableDates []string  `bson:"unavailableDates,omitempty"`
	UpdatedAt        time.Time `bson:"updatedAt"`
}

func (d *doctorDoc) profile() (*Profile, error) {
	hours, err := ParseHours(d.MorningStart, d.MorningEnd, d.EveningStart, d.EveningEnd)
	if err != nil {
		return nil, err
	}
	dates := append([]string(nil), d.UnavailableDates...)
	sort.Strings(dates)
	return &Profile{
		DoctorID:         d.DoctorID,
		Name:             d.Name,
		Specialization:   d.Specialization,
		Hours:            hours,
		UnavailableDates: dates,
		UpdatedAt:        d.UpdatedAt,
	}, nil
}

// RepoMongo stores profiles as one document per doctor. Unavailable dates
// live in an array field and are toggled with $pull / $addToSet.
type RepoMongo struct {
	coll *mongo.Collection
}

func NewRepoMongo(db *mongo.Database) *RepoMongo {
	return &RepoMongo{coll: db.Collection(CollectionName)}
}

// EnsureIndexes creates the unique doctorId index and the list ordering index.
func (r *RepoMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "doctorId", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("doctorId_unique"),
		},
		{
			Keys:    bson.D{{Key: "name", Value: 1}, {Key: "doctorId", Value: 1}},
			Options: options.Index().SetName("name_doctorId"),
		},
	})
	if err != nil {
		return storage.Wrap("create doctor indexes", err)
	}
	return nil
}

func (r *RepoMongo) Get(ctx context.Context, id string) (*Profile, error) {
	var doc doctorDoc
	err := r.coll.FindOne(ctx, bson.M{"doctorId": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storage.Wrap("get doctor", err)
	}
	return doc.profile()
}

func (r *RepoMongo) List(ctx context.Context, limit, offset int) ([]*Profile, int, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, storage.Wrap("count doctors", err)
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "doctorId", Value: 1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}
	cursor, err := r.coll.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, 0, storage.Wrap("list doctors", err)
	}
	defer cursor.Close(ctx)

	items := []*Profile{}
	for cursor.Next(ctx) {
		var doc doctorDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, 0, storage.Wrap("decode doctor", err)
		}
		p, err := doc.profile()
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}
	if err := cursor.Err(); err != nil {
		return nil, 0, storage.Wrap("iterate doctors", err)
	}
	return items, int(total), nil
}

func (r *RepoMongo) Upsert(ctx context.Context, p *Profile) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":           p.Name,
			"specialization": p.Specialization,
			"morningStart":   p.Hours.Morning.Start.String(),
			"morningEnd":     p.Hours.Morning.End.String(),
			"eveningStart":   p.Hours.Evening.Start.String(),
			"eveningEnd":     p.Hours.Evening.End.String(),
			"updatedAt":      now,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc doctorDoc
	if err := r.coll.FindOneAndUpdate(ctx, bson.M{"doctorId": p.DoctorID}, update, opts).Decode(&doc); err != nil {
		return storage.Wrap("upsert doctor", err)
	}
	p.UpdatedAt = doc.UpdatedAt
	p.UnavailableDates = append([]string(nil), doc.UnavailableDates...)
	sort.Strings(p.UnavailableDates)
	return nil
}

// ToggleUnavailableDate flips date in a single update pipeline, so the
// membership test and the write happen atomically on the document. The
// action is read back from the updated document.
func (r *RepoMongo) ToggleUnavailableDate(ctx context.Context, id, date string) (Action, error) {
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"unavailableDates": 1})

	var doc doctorDoc
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"doctorId": id}, togglePipeline(date), opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", storage.Wrap("toggle unavailable date", err)
	}
	return actionAfter(doc.UnavailableDates, date), nil
}

func (r *RepoMongo) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"doctorId": id})
	if err != nil {
		return storage.Wrap("delete doctor", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// togglePipeline removes date from unavailableDates when present and appends
// it otherwise. A missing array counts as empty.
func togglePipeline(date string) mongo.Pipeline {
	current := bson.M{"$ifNull": bson.A{"$unavailableDates", bson.A{}}}
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"unavailableDates": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{date, current}},
				bson.M{"$filter": bson.M{
					"input": current,
					"cond":  bson.M{"$ne": bson.A{"$$this", date}},
				}},
				bson.M{"$concatArrays": bson.A{current, bson.A{date}}},
			}},
		}}},
	}
}

// actionAfter derives the toggle outcome from the post-update date set.
func actionAfter(dates []string, date string) Action {
	for _, d := range dates {
		if d == date {
			return ActionAdded
		}
	}
	return ActionRemoved
}
