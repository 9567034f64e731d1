package hub

import (
	"testing"

	"github.com/chatwire/relay/src/types"
)

func TestAttachIdentityFirstWins(t *testing.T) {
	c := newTestClient("a")

	first := &types.Identity{UserID: "user-1"}
	second := &types.Identity{UserID: "user-2"}

	if got := c.AttachIdentity(first); got.UserID != "user-1" {
		t.Fatalf("expected user-1, got %s", got.UserID)
	}
	if got := c.AttachIdentity(second); got.UserID != "user-1" {
		t.Errorf("second attach must keep the first identity, got %s", got.UserID)
	}
	if c.Identity().UserID != "user-1" {
		t.Errorf("stored identity changed to %s", c.Identity().UserID)
	}
}

func TestIdentityNilBeforeJoin(t *testing.T) {
	c := newTestClient("a")
	if c.Identity() != nil {
		t.Error("expected nil identity before first join")
	}
}

func TestCloseIdempotent(t *testing.T) {
	c := newTestClient("a")
	c.Close()
	c.Close() // must not panic

	if c.Enqueue(types.NewErrorFrame("x")) {
		t.Error("enqueue after close should report false")
	}
}

func TestEnqueueFullBuffer(t *testing.T) {
	c := newTestClient("a")
	for i := 0; i < cap(c.Send); i++ {
		if !c.Enqueue(types.NewErrorFrame("fill")) {
			t.Fatalf("enqueue %d should succeed", i)
		}
	}
	if c.Enqueue(types.NewErrorFrame("overflow")) {
		t.Error("enqueue past capacity should report false, not block")
	}
}
