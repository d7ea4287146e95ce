package fixtures

import (
	"context"
	"fmt"

	"github.com/kwansinnn/cytosight-all-detect/domain/core/entities"
	"github.com/kwansinnn/cytosight-all-detect/domain/core/valueobjects"
	"github.com/kwansinnn/cytosight-all-detect/domain/services"
	"github.com/kwansinnn/cytosight-all-detect/infrastructure/persistence/memory"
	"github.com/kwansinnn/cytosight-all-detect/pkg/auth"
)

// Registrar creates sign-in accounts
type Registrar interface {
	Register(userID, email, password string) (string, error)
}

// DemoAccount is a seeded user
type DemoAccount struct {
	UserID   string
	Email    string
	Password string
	FullName string
}

// DemoAccounts are the users SeedDemo creates
var DemoAccounts = []DemoAccount{
	{UserID: "00000000-0000-4000-8000-000000000001", Email: "pathologist@cytosight.dev", Password: "cytosight-demo", FullName: "Dr. Ana Ruiz"},
	{UserID: "00000000-0000-4000-8000-000000000002", Email: "technician@cytosight.dev", Password: "cytosight-demo", FullName: "Sam Okafor"},
}

// SeedDemo registers the demo accounts and fills db with a few analyses,
// a thread with a comment, and a favorite marker. Writes go through the
// session-bound store so ownership rules apply as in normal use.
func SeedDemo(ctx context.Context, db *memory.DB, accounts Registrar, analyzer services.ImageAnalyzer) error {
	if analyzer == nil {
		analyzer = services.NewMockAnalyzer()
	}
	factory := memory.NewFactory(db)

	for i, a := range DemoAccounts {
		if _, err := accounts.Register(a.UserID, a.Email, a.Password); err != nil {
			return fmt.Errorf("register %s: %w", a.Email, err)
		}
		name := a.FullName
		db.PutProfile(entities.Profile{UserID: a.UserID, FullName: &name, Email: a.Email})

		store, err := factory.ForSession(&auth.Session{UserID: a.UserID, Email: a.Email})
		if err != nil {
			return err
		}
		for n := 1; n <= 2+i; n++ {
			file := entities.FileHandle{Name: fmt.Sprintf("smear-%02d.png", n), ContentType: "image/png"}
			record, err := entities.NewCompletedUpload(a.UserID, file.Name, file.Name, analyzer.Analyze(file))
			if err != nil {
				return err
			}
			if _, err := store.InsertUpload(ctx, record); err != nil {
				return fmt.Errorf("seed upload: %w", err)
			}
		}
	}

	author, reviewer := DemoAccounts[0], DemoAccounts[1]
	authorStore, err := factory.ForSession(&auth.Session{UserID: author.UserID})
	if err != nil {
		return err
	}
	content, err := valueobjects.NewPostContent(
		"Atypical lymphocytes in smear 02",
		"Several cells show irregular nuclear contours. Second opinions welcome.",
	)
	if err != nil {
		return err
	}
	thread, err := entities.NewDiscussionThread(author.UserID, content, nil)
	if err != nil {
		return err
	}
	view, err := authorStore.InsertThread(ctx, thread)
	if err != nil {
		return fmt.Errorf("seed thread: %w", err)
	}

	reviewerStore, err := factory.ForSession(&auth.Session{UserID: reviewer.UserID})
	if err != nil {
		return err
	}
	comment, err := entities.NewDiscussionComment(view.ID, reviewer.UserID, "Agreed, worth a repeat stain.")
	if err != nil {
		return err
	}
	if _, err := reviewerStore.InsertComment(ctx, comment); err != nil {
		return fmt.Errorf("seed comment: %w", err)
	}
	return reviewerStore.InsertMarker(ctx, entities.Marker{
		Kind:     valueobjects.MarkerFavorite,
		UserID:   reviewer.UserID,
		ThreadID: view.ID,
	})
}
