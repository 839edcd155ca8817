package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sirpyerre/discussion-api/internal/core/domain"
	"github.com/sirpyerre/discussion-api/internal/core/ports"
)

type CommentRepository struct {
	col *mongo.Collection
}

func NewCommentRepository(db *mongo.Database) *CommentRepository {
	return &CommentRepository{col: db.Collection(collectionComments)}
}

type commentDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Content   string             `bson:"content"`
	Author    primitive.ObjectID `bson:"author"`
	Post      primitive.ObjectID `bson:"post"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d *commentDocument) toDomain() *domain.Comment {
	return &domain.Comment{
		ID:        d.ID.Hex(),
		Content:   d.Content,
		AuthorID:  d.Author.Hex(),
		PostID:    d.Post.Hex(),
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

func (r *CommentRepository) Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	author, ok := objectID(comment.AuthorID)
	if !ok {
		return nil, domain.NotFound(domain.KindUser)
	}
	post, ok := objectID(comment.PostID)
	if !ok {
		return nil, domain.NotFound(domain.KindPost)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := commentDocument{
		ID:        primitive.NewObjectID(),
		Content:   comment.Content,
		Author:    author,
		Post:      post,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CommentRepository) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.NotFound(domain.KindComment)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc commentDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound(err, domain.KindComment)
	}
	return doc.toDomain(), nil
}

func (r *CommentRepository) ListByPost(ctx context.Context, postID string, page ports.Page) ([]*domain.Comment, error) {
	post, ok := objectID(postID)
	if !ok {
		return []*domain.Comment{}, nil
	}
	return r.find(ctx, bson.M{"post": post}, page)
}

func (r *CommentRepository) ListByAuthor(ctx context.Context, authorID string, page ports.Page) ([]*domain.Comment, error) {
	author, ok := objectID(authorID)
	if !ok {
		return []*domain.Comment{}, nil
	}
	return r.find(ctx, bson.M{"author": author}, page)
}

func (r *CommentRepository) Update(ctx context.Context, id, content string) (*domain.Comment, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, domain.NotFound(domain.KindComment)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"content": content, "updated_at": time.Now().UTC()}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc commentDocument
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return nil, notFound(err, domain.KindComment)
	}
	return doc.toDomain(), nil
}

func (r *CommentRepository) Delete(ctx context.Context, id string) error {
	oid, ok := objectID(id)
	if !ok {
		return domain.NotFound(domain.KindComment)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.NotFound(domain.KindComment)
	}
	return nil
}

func (r *CommentRepository) DeleteByPost(ctx context.Context, postID string) (int64, error) {
	post, ok := objectID(postID)
	if !ok {
		return 0, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"post": post})
	if err != nil {
		return 0, fmt.Errorf("delete comments of post: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *CommentRepository) find(ctx context.Context, filter bson.M, page ports.Page) ([]*domain.Comment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	page = page.Normalize()
	cur, err := r.col.Find(ctx, filter, findOptions(page.Skip, page.Limit))
	if err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}
	var docs []commentDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}

	comments := make([]*domain.Comment, len(docs))
	for i := range docs {
		comments[i] = docs[i].toDomain()
	}
	return comments, nil
}
