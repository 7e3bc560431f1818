package main

import (
	"context"
	"fmt"
	"log"

	"github.com/hack-pad/hackpadfs/mem"

	"github.com/kittclouds/contactkitt/internal/store"
)

func main() {
	fmt.Println("Testing MemStore...")
	testStore(store.NewMemStore())

	fmt.Println("\nTesting SQLiteStore...")
	s, err := store.NewSQLiteStore()
	if err != nil {
		log.Fatalf("NewSQLiteStore failed: %v", err)
	}
	testStore(s)

	fmt.Println("\nTesting FileStore...")
	fs, err := mem.NewFS()
	if err != nil {
		log.Fatalf("mem.NewFS failed: %v", err)
	}
	testStore(store.NewFileStore(fs, store.DefaultDatabaseName, store.DefaultCollectionName))

	fmt.Println("\n✅ All tests passed!")
}

// testStore walks the insert, update, delete cycle on s and closes it.
func testStore(s store.Storer) {
	ctx := context.Background()
	defer s.Close()

	if err := s.Init(ctx); err != nil {
		log.Fatalf("Init failed: %v", err)
	}
	if err := s.Init(ctx); err != nil {
		log.Fatalf("second Init failed: %v", err)
	}
	fmt.Println("  ✓ Init works")

	id, err := s.Insert(ctx, &store.Contact{
		Name:    "Ada",
		Email:   "ada@x.com",
		Phone:   "555-0100",
		Profile: "eng",
	})
	if err != nil {
		log.Fatalf("Insert failed: %v", err)
	}
	fmt.Println("  ✓ Insert works, id", id)

	contacts, err := s.List(ctx)
	if err != nil {
		log.Fatalf("List failed: %v", err)
	}
	if len(contacts) != 1 || contacts[0].Email != "ada@x.com" {
		log.Fatalf("List expected Ada, got %+v", contacts)
	}
	fmt.Println("  ✓ List works")

	if err := s.Update(ctx, &store.Contact{ID: id, Name: "Ada", Email: "ada@y.com", Phone: "555-0100", Profile: "eng"}); err != nil {
		log.Fatalf("Update failed: %v", err)
	}
	contacts, err = s.List(ctx)
	if err != nil {
		log.Fatalf("List failed: %v", err)
	}
	if len(contacts) != 1 || contacts[0].Email != "ada@y.com" {
		log.Fatalf("Update not visible, got %+v", contacts)
	}
	fmt.Println("  ✓ Update works")

	if err := s.Delete(ctx, id); err != nil {
		log.Fatalf("Delete failed: %v", err)
	}
	contacts, err = s.List(ctx)
	if err != nil {
		log.Fatalf("List failed: %v", err)
	}
	if len(contacts) != 0 {
		log.Fatalf("Delete expected empty list, got %d", len(contacts))
	}
	fmt.Println("  ✓ Delete works")
}
