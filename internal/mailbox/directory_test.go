package mailbox

import (
	"context"
	"testing"

	"github.com/oumaimaa/mailvault/internal/store"
	"github.com/oumaimaa/mailvault/internal/store/fake"
)

func TestCachedDirectoryCachesPositivesOnly(t *testing.T) {
	calls := map[string]int{}
	inner := DirectoryFunc(func(ctx context.Context, actorID string) (bool, error) {
		calls[actorID]++
		return actorID == "bob", nil
	})
	dir, err := NewCachedDirectory(inner, 16)
	if err != nil {
		t.Fatalf("NewCachedDirectory() error = %v", err)
	}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ok, err := dir.Resolvable(ctx, "bob")
		if err != nil || !ok {
			t.Fatalf("Resolvable(bob) = %v, %v, want true", ok, err)
		}
	}
	if calls["bob"] != 1 {
		t.Errorf("inner directory called %d times for known actor, want 1", calls["bob"])
	}

	for i := 0; i < 3; i++ {
		ok, err := dir.Resolvable(ctx, "ghost")
		if err != nil || ok {
			t.Fatalf("Resolvable(ghost) = %v, %v, want false", ok, err)
		}
	}
	// Negative results are never cached; the actor may appear later.
	if calls["ghost"] != 3 {
		t.Errorf("inner directory called %d times for unknown actor, want 3", calls["ghost"])
	}
}

func TestHistoryDirectory(t *testing.T) {
	db := fake.NewDB()
	db.Mails = append(db.Mails, store.Record{
		ID:          "mail-1",
		SenderID:    "alice",
		RecipientID: "bob",
		Status:      "UNREAD",
	})
	dir := NewHistoryDirectory(NewRepository(db, testLogger()))
	dir.Online = func(actorID string) bool { return actorID == "carol" }
	ctx := context.Background()

	tests := []struct {
		actorID string
		want    bool
	}{
		{"bob", true},   // has received mail
		{"alice", true}, // has sent mail
		{"carol", true}, // never mailed, but online
		{"ghost", false},
	}
	for _, tc := range tests {
		ok, err := dir.Resolvable(ctx, tc.actorID)
		if err != nil {
			t.Fatalf("Resolvable(%s) error = %v", tc.actorID, err)
		}
		if ok != tc.want {
			t.Errorf("Resolvable(%s) = %v, want %v", tc.actorID, ok, tc.want)
		}
	}
}
