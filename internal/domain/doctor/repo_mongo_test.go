package doctor

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestTogglePipeline_SingleConditionalSet(t *testing.T) {
	p := togglePipeline("2025-06-02")
	if len(p) != 1 {
		t.Fatalf("expected one stage, got %d", len(p))
	}
	stage := p[0]
	if len(stage) != 1 || stage[0].Key != "$set" {
		t.Fatalf("expected a single $set stage, got %v", stage)
	}

	set := stage[0].Value.(bson.M)
	cond := set["unavailableDates"].(bson.M)["$cond"].(bson.A)
	if len(cond) != 3 {
		t.Fatalf("expected if/then/else, got %v", cond)
	}

	current := bson.M{"$ifNull": bson.A{"$unavailableDates", bson.A{}}}
	wantIf := bson.M{"$in": bson.A{"2025-06-02", current}}
	if !reflect.DeepEqual(cond[0], wantIf) {
		t.Errorf("unexpected membership test: %v", cond[0])
	}

	filter := cond[1].(bson.M)["$filter"].(bson.M)
	wantRemove := bson.M{"$ne": bson.A{"$$this", "2025-06-02"}}
	if !reflect.DeepEqual(filter["cond"], wantRemove) || !reflect.DeepEqual(filter["input"], current) {
		t.Errorf("unexpected removal branch: %v", filter)
	}

	wantAdd := bson.M{"$concatArrays": bson.A{current, bson.A{"2025-06-02"}}}
	if !reflect.DeepEqual(cond[2], wantAdd) {
		t.Errorf("unexpected add branch: %v", cond[2])
	}
}

func TestActionAfter(t *testing.T) {
	if got := actionAfter([]string{"2025-06-01", "2025-06-02"}, "2025-06-02"); got != ActionAdded {
		t.Errorf("expected added when date is present after update, got %s", got)
	}
	if got := actionAfter([]string{"2025-06-01"}, "2025-06-02"); got != ActionRemoved {
		t.Errorf("expected removed when date is absent after update, got %s", got)
	}
	if got := actionAfter(nil, "2025-06-02"); got != ActionRemoved {
		t.Errorf("expected removed for an empty set, got %s", got)
	}
}
