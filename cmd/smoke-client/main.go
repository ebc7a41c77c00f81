package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"curalink.org/internal/auth"
	"curalink.org/internal/client"
	"curalink.org/internal/favorites"
	"curalink.org/internal/workflow"
)

func newClient(base string) *client.Client {
	c, err := client.New(base, client.WithCredentialStore(client.NewMemStore()))
	if err != nil {
		log.Fatalf("new client: %v", err)
	}
	return c
}

func main() {
	base := os.Getenv("CURALINK_API_URL")
	if base == "" {
		base = "http://localhost:8080"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	run := rand.New(rand.NewSource(time.Now().UnixNano())).Int()
	patient := newClient(base)
	alice := newClient(base)
	bob := newClient(base)

	if _, err := patient.Register(ctx, fmt.Sprintf("smoke-patient-%d@example.com", run), "smoke-password", auth.RolePatient); err != nil {
		log.Fatalf("register patient: %v", err)
	}
	aliceUser, err := alice.Register(ctx, fmt.Sprintf("smoke-alice-%d@example.com", run), "smoke-password", auth.RoleResearcher)
	if err != nil {
		log.Fatalf("register alice: %v", err)
	}
	bobUser, err := bob.Register(ctx, fmt.Sprintf("smoke-bob-%d@example.com", run), "smoke-password", auth.RoleResearcher)
	if err != nil {
		log.Fatalf("register bob: %v", err)
	}

	// Saving the same reference twice must yield a single record.
	itemID := fmt.Sprintf("NCT%08d", run%100_000_000)
	first, err := patient.AddFavorite(ctx, favorites.ItemTrial, itemID, "smoke")
	if err != nil {
		log.Fatalf("add favorite: %v", err)
	}
	second, err := patient.AddFavorite(ctx, favorites.ItemTrial, itemID, "smoke again")
	if err != nil {
		log.Fatalf("re-add favorite: %v", err)
	}
	if first.ID != second.ID {
		log.Fatalf("re-add created a new record: %s vs %s", first.ID, second.ID)
	}
	saved, err := patient.ListFavorites(ctx, favorites.ItemTrial)
	if err != nil {
		log.Fatalf("list favorites: %v", err)
	}
	if len(saved) != 1 {
		log.Fatalf("expected 1 favorite, got %d", len(saved))
	}

	// A rejected connection still occupies the directed pair.
	conn, err := alice.Connect(ctx, bobUser.ID)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	if _, err := bob.RespondToConnection(ctx, conn.ID, workflow.StatusRejected); err != nil {
		log.Fatalf("reject connection: %v", err)
	}
	if _, err := alice.Connect(ctx, bobUser.ID); !errors.Is(err, client.ErrDuplicate) {
		log.Fatalf("expected duplicate relationship, got %v", err)
	}

	// Forum gating: anyone posts, only researchers reply.
	f, err := alice.CreateForum(ctx, fmt.Sprintf("Smoke forum %d", run), "smoke run", "general")
	if err != nil {
		log.Fatalf("create forum: %v", err)
	}
	post, err := patient.CreatePost(ctx, f.ID, "Question about eligibility", "Can I join with stage 2?")
	if err != nil {
		log.Fatalf("create post: %v", err)
	}
	if _, err := patient.CreateReply(ctx, post.ID, "bump"); !errors.Is(err, client.ErrForbidden) {
		log.Fatalf("expected forbidden patient reply, got %v", err)
	}
	if _, err := alice.CreateReply(ctx, post.ID, "Stage 2 is within the inclusion criteria."); err != nil {
		log.Fatalf("researcher reply: %v", err)
	}

	fmt.Printf("smoke test passed: patient favorites=1 connection=%s researchers=%s,%s\n",
		conn.ID, aliceUser.ID, bobUser.ID)
}
