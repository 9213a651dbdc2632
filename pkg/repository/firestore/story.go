package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/neuro86/neuro86/pkg/domain/model"
	"github.com/neuro86/neuro86/pkg/domain/types"
)

// distanceField is where FindNearest writes the cosine distance of each
// result document
const distanceField = "VectorDistance"

// storyDoc is the Firestore document representation of model.Story.
// Embedding is stored as firestore.Vector32 so that FindNearest vector search
// works.
type storyDoc struct {
	ID        types.StoryID           `firestore:"ID"`
	UserID    types.UserID            `firestore:"UserID"`
	Title     string                  `firestore:"Title"`
	RawText   string                  `firestore:"RawText"`
	Timeline  *model.TimelineDocument `firestore:"Timeline,omitempty"`
	Embedding firestore.Vector32      `firestore:"Embedding,omitempty"`
	CreatedAt time.Time               `firestore:"CreatedAt"`
	UpdatedAt time.Time               `firestore:"UpdatedAt"`
}

func toStoryDoc(s *model.Story) *storyDoc {
	doc := &storyDoc{
		ID:        s.ID,
		UserID:    s.UserID,
		Title:     s.Title,
		RawText:   s.RawText,
		Timeline:  s.Timeline,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
	if len(s.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(s.Embedding)
	}
	return doc
}

func fromStoryDoc(d *storyDoc) *model.Story {
	s := &model.Story{
		ID:        d.ID,
		UserID:    d.UserID,
		Title:     d.Title,
		RawText:   d.RawText,
		Timeline:  d.Timeline,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if len(d.Embedding) > 0 {
		s.Embedding = []float32(d.Embedding)
	}
	return s
}

func docToStory(doc *firestore.DocumentSnapshot) (*model.Story, error) {
	var d storyDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromStoryDoc(&d), nil
}

type storyRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newStoryRepository(client *firestore.Client) *storyRepository {
	return &storyRepository{
		client: client,
	}
}

func (r *storyRepository) storiesCollection() *firestore.CollectionRef {
	name := "stories"
	if r.collectionPrefix != "" {
		name = r.collectionPrefix + "_" + name
	}
	return r.client.Collection(name)
}

func (r *storyRepository) Create(ctx context.Context, story *model.Story) (*model.Story, error) {
	now := time.Now().UTC()
	created := *story
	if created.ID == "" {
		created.ID = types.NewStoryID()
	}
	created.CreatedAt = now
	created.UpdatedAt = now

	docRef := r.storiesCollection().Doc(created.ID.String())
	if _, err := docRef.Set(ctx, toStoryDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create story", goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *storyRepository) Get(ctx context.Context, id types.StoryID) (*model.Story, error) {
	docSnap, err := r.storiesCollection().Doc(id.String()).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "story not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get story", goerr.V("id", id))
	}

	return docToStory(docSnap)
}

func (r *storyRepository) ListByUser(ctx context.Context, userID types.UserID) ([]*model.Story, error) {
	iter := r.storiesCollection().
		Where("UserID", "==", userID.String()).
		OrderBy("CreatedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	stories := make([]*model.Story, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate stories", goerr.V("userID", userID))
		}

		s, err := docToStory(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to decode story", goerr.V("doc_id", doc.Ref.ID))
		}

		stories = append(stories, s)
	}

	return stories, nil
}

// Update performs the ownership-scoped conditional write: the document is
// replaced only when it exists and belongs to userID. A story owned by
// someone else is indistinguishable from a missing one.
func (r *storyRepository) Update(ctx context.Context, userID types.UserID, story *model.Story) (*model.Story, error) {
	docRef := r.storiesCollection().Doc(story.ID.String())

	updated := *story
	updated.UserID = userID
	updated.UpdatedAt = time.Now().UTC()

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "story not found", goerr.V("id", story.ID))
			}
			return err
		}

		var current storyDoc
		if err := docSnap.DataTo(&current); err != nil {
			return goerr.Wrap(err, "failed to decode story", goerr.V("id", story.ID))
		}
		if current.UserID != userID {
			return goerr.Wrap(ErrNotFound, "story not found", goerr.V("id", story.ID))
		}

		updated.CreatedAt = current.CreatedAt
		return tx.Set(docRef, toStoryDoc(&updated))
	})
	if err != nil {
		return nil, err
	}

	return &updated, nil
}

func (r *storyRepository) Delete(ctx context.Context, userID types.UserID, id types.StoryID) error {
	docRef := r.storiesCollection().Doc(id.String())

	return r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		docSnap, err := tx.Get(docRef)
		if err != nil {
			if status.Code(err) == codes.NotFound {
				return goerr.Wrap(ErrNotFound, "story not found", goerr.V("id", id))
			}
			return err
		}

		var current storyDoc
		if err := docSnap.DataTo(&current); err != nil {
			return goerr.Wrap(err, "failed to decode story", goerr.V("id", id))
		}
		if current.UserID != userID {
			return goerr.Wrap(ErrNotFound, "story not found", goerr.V("id", id))
		}

		return tx.Delete(docRef)
	})
}

func (r *storyRepository) DeleteByUser(ctx context.Context, userID types.UserID) error {
	iter := r.storiesCollection().
		Where("UserID", "==", userID.String()).
		Documents(ctx)
	defer iter.Stop()

	bulk := r.client.BulkWriter(ctx)
	jobs := make(map[string]*firestore.BulkWriterJob)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return goerr.Wrap(err, "failed to iterate stories for delete", goerr.V("userID", userID))
		}
		job, err := bulk.Delete(doc.Ref)
		if err != nil {
			return goerr.Wrap(err, "failed to enqueue story delete", goerr.V("doc_id", doc.Ref.ID))
		}
		jobs[doc.Ref.ID] = job
	}
	bulk.End()

	// Per-document failures only surface through the job results
	for docID, job := range jobs {
		if _, err := job.Results(); err != nil {
			return goerr.Wrap(err, "failed to delete story", goerr.V("doc_id", docID), goerr.V("userID", userID))
		}
	}

	return nil
}

func (r *storyRepository) FindByEmbedding(ctx context.Context, embedding []float32, limit int) ([]*model.SimilarStory, error) {
	vq := r.storiesCollection().
		FindNearest("Embedding", firestore.Vector32(embedding), limit, firestore.DistanceMeasureCosine,
			&firestore.FindNearestOptions{DistanceResultField: distanceField})

	iter := vq.Documents(ctx)
	defer iter.Stop()

	results := make([]*model.SimilarStory, 0, limit)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate vector search results")
		}

		s, err := docToStory(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to decode story from vector search")
		}

		// Cosine distance is in [0, 2]; report similarity so that higher
		// means closer.
		score := 0.0
		if v, ok := doc.Data()[distanceField].(float64); ok {
			score = 1.0 - v
		}

		results = append(results, &model.SimilarStory{Story: s, Score: score})
	}

	return results, nil
}
