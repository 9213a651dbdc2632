package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/neuro86/neuro86/pkg/domain/model"
	"github.com/neuro86/neuro86/pkg/domain/types"
)

// userDoc is the Firestore document representation of model.User
type userDoc struct {
	ID           types.UserID            `firestore:"ID"`
	SessionToken types.SessionToken      `firestore:"SessionToken"`
	Subject      string                  `firestore:"Subject"`
	DisplayName  string                  `firestore:"DisplayName"`
	Timeline     *model.TimelineDocument `firestore:"Timeline,omitempty"`
	CreatedAt    time.Time               `firestore:"CreatedAt"`
	UpdatedAt    time.Time               `firestore:"UpdatedAt"`
}

// lookupDoc maps a unique secondary key (session token or subject) to a user
// document. Creating it with tx.Create enforces uniqueness: Firestore rejects
// the transaction with AlreadyExists when the key is taken.
type lookupDoc struct {
	UserID types.UserID `firestore:"UserID"`
}

func toUserDoc(u *model.User) *userDoc {
	return &userDoc{
		ID:           u.ID,
		SessionToken: u.SessionToken,
		Subject:      u.Subject,
		DisplayName:  u.DisplayName,
		Timeline:     u.Timeline,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func fromUserDoc(d *userDoc) *model.User {
	return &model.User{
		ID:           d.ID,
		SessionToken: d.SessionToken,
		Subject:      d.Subject,
		DisplayName:  d.DisplayName,
		Timeline:     d.Timeline,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type userRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newUserRepository(client *firestore.Client) *userRepository {
	return &userRepository{
		client: client,
	}
}

func (r *userRepository) collection(name string) *firestore.CollectionRef {
	if r.collectionPrefix != "" {
		name = r.collectionPrefix + "_" + name
	}
	return r.client.Collection(name)
}

func (r *userRepository) usersCollection() *firestore.CollectionRef {
	return r.collection("users")
}

func (r *userRepository) sessionsCollection() *firestore.CollectionRef {
	return r.collection("user_sessions")
}

func (r *userRepository) subjectsCollection() *firestore.CollectionRef {
	return r.collection("user_subjects")
}

func (r *userRepository) Create(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now().UTC()
	created := *user
	if created.ID == "" {
		created.ID = types.NewUserID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if err := tx.Create(r.usersCollection().Doc(created.ID.String()), toUserDoc(&created)); err != nil {
			return err
		}
		if err := tx.Create(r.sessionsCollection().Doc(created.SessionToken.String()), &lookupDoc{UserID: created.ID}); err != nil {
			return err
		}
		if created.Subject != "" {
			if err := tx.Create(r.subjectsCollection().Doc(created.Subject), &lookupDoc{UserID: created.ID}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(ErrAlreadyExists, "user key already taken", goerr.V("id", created.ID))
		}
		return nil, goerr.Wrap(err, "failed to create user", goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *userRepository) Get(ctx context.Context, id types.UserID) (*model.User, error) {
	docSnap, err := r.usersCollection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get user", goerr.V("id", id))
	}

	var d userDoc
	if err := docSnap.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user", goerr.V("id", id))
	}

	return fromUserDoc(&d), nil
}

func (r *userRepository) getByLookup(ctx context.Context, ref *firestore.DocumentRef) (*model.User, error) {
	docSnap, err := ref.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "user not found")
		}
		return nil, goerr.Wrap(err, "failed to get user lookup")
	}

	var lookup lookupDoc
	if err := docSnap.DataTo(&lookup); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user lookup")
	}

	return r.Get(ctx, lookup.UserID)
}

func (r *userRepository) GetBySubject(ctx context.Context, subject string) (*model.User, error) {
	return r.getByLookup(ctx, r.subjectsCollection().Doc(subject))
}

func (r *userRepository) GetBySessionToken(ctx context.Context, token types.SessionToken) (*model.User, error) {
	return r.getByLookup(ctx, r.sessionsCollection().Doc(token.String()))
}

func (r *userRepository) Update(ctx context.Context, user *model.User) (*model.User, error) {
	docRef := r.usersCollection().Doc(user.ID.String())

	updated := *user
	updated.UpdatedAt = time.Now().UTC()

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "user not found", goerr.V("id", user.ID))
			}
			return err
		}

		var current userDoc
		if err := docSnap.DataTo(&current); err != nil {
			return goerr.Wrap(err, "failed to decode user", goerr.V("id", user.ID))
		}

		if err := tx.Set(docRef, toUserDoc(&updated)); err != nil {
			return err
		}

		// An anonymous user being linked to an external identity claims the
		// subject key here; a concurrent merge for the same subject loses the
		// transaction and surfaces as ErrAlreadyExists.
		if updated.Subject != "" && current.Subject != updated.Subject {
			if err := tx.Create(r.subjectsCollection().Doc(updated.Subject), &lookupDoc{UserID: updated.ID}); err != nil {
				return err
			}
		}

		// A token rotation moves the session lookup so the old token stops
		// resolving
		if current.SessionToken != updated.SessionToken {
			if err := tx.Delete(r.sessionsCollection().Doc(current.SessionToken.String())); err != nil {
				return err
			}
			if err := tx.Create(r.sessionsCollection().Doc(updated.SessionToken.String()), &lookupDoc{UserID: updated.ID}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return nil, goerr.Wrap(ErrAlreadyExists, "user key already taken", goerr.V("id", user.ID))
		}
		return nil, err
	}

	return &updated, nil
}

func (r *userRepository) UpdateTimeline(ctx context.Context, id types.UserID, timeline *model.TimelineDocument) error {
	var value any = timeline
	if timeline == nil {
		value = firestore.Delete
	}

	_, err := r.usersCollection().Doc(id.String()).Update(ctx, []firestore.Update{
		{Path: "Timeline", Value: value},
		{Path: "UpdatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "user not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to update user timeline", goerr.V("id", id))
	}

	return nil
}
