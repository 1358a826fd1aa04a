package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"certmap/internal/models"
	"certmap/pkg/objectstore"
)

// fakeEmbedder returns canned vectors keyed by exact input text. Unknown texts
// fall back to defaultVector when set, otherwise error.
type fakeEmbedder struct {
	vectors       map[string][]float32
	defaultVector []float32
	err           error
	calls         [][]string
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := f.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if v, ok := f.vectors[text]; ok {
			out[i] = v
			continue
		}
		if f.defaultVector != nil {
			out[i] = f.defaultVector
			continue
		}
		return nil, fmt.Errorf("no canned vector for %q", text)
	}
	return out, nil
}

type fakeGenerator struct {
	response string
	err      error
	calls    int

	lastModel  string
	lastPrompt string
}

func (f *fakeGenerator) Generate(ctx context.Context, model, prompt string) (string, error) {
	f.calls++
	f.lastModel = model
	f.lastPrompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeModelSelector struct {
	identifier string
	err        error
}

func (f *fakeModelSelector) ActiveModel(ctx context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.identifier, nil
}

// fakeHierarchyStore serves one in-memory tree and records embedding writes
// back into the tree nodes, so re-running a generator observes earlier writes.
type fakeHierarchyStore struct {
	certificationID uuid.UUID
	tree            []*models.Domain
	updateErr       error
}

func (f *fakeHierarchyStore) GetCertificationTree(ctx context.Context, certificationID uuid.UUID) ([]*models.Domain, error) {
	if certificationID != f.certificationID {
		return nil, models.ErrNotFound
	}
	return f.tree, nil
}

func (f *fakeHierarchyStore) UpdateDomainEmbedding(ctx context.Context, id uuid.UUID, embedding []byte) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, d := range f.tree {
		if d.ID == id {
			d.Embedding = embedding
			return nil
		}
	}
	return models.ErrNotFound
}

func (f *fakeHierarchyStore) UpdateObjectiveEmbedding(ctx context.Context, id uuid.UUID, embedding []byte) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, d := range f.tree {
		for _, o := range d.Objectives {
			if o.ID == id {
				o.Embedding = embedding
				return nil
			}
		}
	}
	return models.ErrNotFound
}

func (f *fakeHierarchyStore) UpdateBulletEmbedding(ctx context.Context, id uuid.UUID, embedding []byte) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, d := range f.tree {
		for _, o := range d.Objectives {
			for _, b := range o.Bullets {
				if b.ID == id {
					b.Embedding = embedding
					return nil
				}
			}
		}
	}
	return models.ErrNotFound
}

func (f *fakeHierarchyStore) UpdateSubBulletEmbedding(ctx context.Context, id uuid.UUID, embedding []byte) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	for _, d := range f.tree {
		for _, o := range d.Objectives {
			for _, b := range o.Bullets {
				for _, sb := range b.SubBullets {
					if sb.ID == id {
						sb.Embedding = embedding
						return nil
					}
				}
			}
		}
	}
	return models.ErrNotFound
}

type fakeContentStore struct {
	videos    map[uuid.UUID]*models.Video
	documents map[uuid.UUID]*models.Document
}

func (f *fakeContentStore) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	v, ok := f.videos[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return v, nil
}

func (f *fakeContentStore) GetDocument(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	d, ok := f.documents[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return d, nil
}

// fakeMappingStore mirrors the relational constraints: duplicate
// (content, node) pairs fail the batch, and clearPrimary demotes the previous
// primary before the insert, all-or-nothing.
type fakeMappingStore struct {
	rows []*models.ContentMapping
	err  error
}

func (f *fakeMappingStore) ListByContent(ctx context.Context, contentID uuid.UUID) ([]*models.ContentMapping, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*models.ContentMapping
	for _, r := range f.rows {
		if r.ContentID == contentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeMappingStore) ExistsForNode(ctx context.Context, contentID uuid.UUID, node models.NodeRef) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, r := range f.rows {
		if r.ContentID == contentID && r.Node == node {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMappingStore) InsertBatch(ctx context.Context, contentID uuid.UUID, mappings []*models.ContentMapping, clearPrimary bool) error {
	if f.err != nil {
		return f.err
	}
	for _, m := range mappings {
		for _, r := range f.rows {
			if r.ContentID == contentID && r.Node == m.Node {
				return models.ErrDuplicateMapping
			}
		}
	}
	if clearPrimary {
		for _, r := range f.rows {
			if r.ContentID == contentID {
				r.IsPrimary = false
			}
		}
	}
	f.rows = append(f.rows, mappings...)
	return nil
}

func (f *fakeMappingStore) Delete(ctx context.Context, mappingID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	for i, r := range f.rows {
		if r.ID == mappingID {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return models.ErrNotFound
}

func (f *fakeMappingStore) SetPrimary(ctx context.Context, contentID, mappingID uuid.UUID) error {
	if f.err != nil {
		return f.err
	}
	var target *models.ContentMapping
	for _, r := range f.rows {
		if r.ID == mappingID && r.ContentID == contentID {
			target = r
			break
		}
	}
	if target == nil {
		return models.ErrNotFound
	}
	for _, r := range f.rows {
		if r.ContentID == contentID {
			r.IsPrimary = false
		}
	}
	target.IsPrimary = true
	return nil
}

// fakeObjectStore serves objects from a map.
type fakeObjectStore struct {
	objects map[string][]byte
}

func (f *fakeObjectStore) Read(ctx context.Context, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, objectstore.ErrObjectNotFound
	}
	return data, nil
}

// unitVector builds a 3-dimensional unit vector whose cosine similarity with
// the query axis [1,0,0] equals cosine exactly.
func unitVector(cosine float64) []float32 {
	return []float32{float32(cosine), float32(math.Sqrt(1 - cosine*cosine)), 0}
}

var queryAxis = []float32{1, 0, 0}
