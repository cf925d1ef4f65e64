package service

import (
	"context"

	"simplesocial/internal/models"
	"simplesocial/internal/observability"
	"simplesocial/internal/repository"

	"gorm.io/gorm"
)

// cascader unwinds a root entity and everything hanging off it inside one
// transaction. Counter decrements for surviving counterparts always run
// before any row deletion, so the zero-rows check in the counter repository
// still sees the rows it adjusts.
type cascader struct {
	relations repository.RelationRepository
	counters  repository.CounterRepository
	users     repository.UserRepository
	posts     repository.PostRepository
	comments  repository.CommentRepository
	pictures  repository.PictureRepository

	// removed tracks rows deleted per table for metrics and logging.
	removed map[string]int64
}

func newCascader(tx *gorm.DB) *cascader {
	return &cascader{
		relations: repository.NewRelationRepository(tx),
		counters:  repository.NewCounterRepository(tx),
		users:     repository.NewUserRepository(tx),
		posts:     repository.NewPostRepository(tx),
		comments:  repository.NewCommentRepository(tx),
		pictures:  repository.NewPictureRepository(tx),
		removed:   make(map[string]int64),
	}
}

func (c *cascader) record(table string, n int64) {
	c.removed[table] += n
}

// flushMetrics publishes the per-table row counts. Called after commit, not
// inside the transaction, so rolled-back cascades report nothing.
func (c *cascader) flushMetrics(root string) {
	observability.CascadeDeletes.WithLabelValues(root).Inc()
	for table, n := range c.removed {
		observability.CascadeRowsRemoved.WithLabelValues(table).Add(float64(n))
	}
}

// deletePost removes one post: its comments with their like edges and
// pictures, the post's own like edges and pictures, then the post row. The
// post's likes counter dies with the row, so no counter adjustments are
// needed here; likes *given by* a deleted user are handled in deleteUser.
func (c *cascader) deletePost(ctx context.Context, postID uint) error {
	commentIDs, err := c.comments.ListIDsByPost(ctx, postID)
	if err != nil {
		return err
	}

	n, err := c.relations.RemoveLikesForComments(ctx, commentIDs)
	if err != nil {
		return err
	}
	c.record("liked_comments", n)

	n, err = c.pictures.DeleteByComments(ctx, commentIDs)
	if err != nil {
		return err
	}
	c.record("comment_pictures", n)

	n, err = c.comments.DeleteByIDs(ctx, commentIDs)
	if err != nil {
		return err
	}
	c.record("comments", n)

	n, err = c.relations.RemoveLikesForPost(ctx, postID)
	if err != nil {
		return err
	}
	c.record("liked_posts", n)

	n, err = c.pictures.DeleteByPost(ctx, postID)
	if err != nil {
		return err
	}
	c.record("post_pictures", n)

	if err := c.posts.Delete(ctx, postID); err != nil {
		return err
	}
	c.record("posts", 1)
	return nil
}

// deleteComment removes one comment: its like edges, its pictures, then
// the row itself.
func (c *cascader) deleteComment(ctx context.Context, commentID uint) error {
	n, err := c.relations.RemoveLikesForComments(ctx, []uint{commentID})
	if err != nil {
		return err
	}
	c.record("liked_comments", n)

	n, err = c.pictures.DeleteByComments(ctx, []uint{commentID})
	if err != nil {
		return err
	}
	c.record("comment_pictures", n)

	if err := c.comments.Delete(ctx, commentID); err != nil {
		return err
	}
	c.record("comments", 1)
	return nil
}

// deleteUser removes a user and every trace of them. The order matters:
//
//  1. decrement counters on counterparts that survive the cascade, while
//     every edge row still exists to be counted;
//  2. remove the user's own edges;
//  3. cascade the user's posts, then the user's comments under other
//     users' posts;
//  4. remove the user row.
func (c *cascader) deleteUser(ctx context.Context, user *models.User) error {
	follows, err := c.relations.ListFollows(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, f := range follows {
		if err := c.counters.AdjustUserReaders(ctx, f.FollowedUserID, -1); err != nil {
			return err
		}
	}
	readers, err := c.relations.ListReaders(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, f := range readers {
		if err := c.counters.AdjustUserFollows(ctx, f.ReaderID, -1); err != nil {
			return err
		}
	}

	ownPostIDs, err := c.posts.ListIDsByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	ownPosts := make(map[uint]bool, len(ownPostIDs))
	for _, id := range ownPostIDs {
		ownPosts[id] = true
	}

	// Comments that die with this cascade: authored by the user, or under
	// one of the user's posts. Their likes counters die with them.
	authoredCommentIDs, err := c.comments.ListIDsByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	underOwnPosts, err := c.comments.ListIDsByPosts(ctx, ownPostIDs)
	if err != nil {
		return err
	}
	doomedComments := make(map[uint]bool, len(authoredCommentIDs)+len(underOwnPosts))
	for _, id := range authoredCommentIDs {
		doomedComments[id] = true
	}
	for _, id := range underOwnPosts {
		doomedComments[id] = true
	}

	// Likes the user gave to content that outlives them.
	likedPosts, err := c.relations.ListPostLikesByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, lp := range likedPosts {
		if ownPosts[lp.PostID] {
			continue
		}
		if err := c.counters.AdjustPostLikes(ctx, lp.PostID, -1); err != nil {
			return err
		}
	}
	likedComments, err := c.relations.ListCommentLikesByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	for _, lc := range likedComments {
		if doomedComments[lc.CommentID] {
			continue
		}
		if err := c.counters.AdjustCommentLikes(ctx, lc.CommentID, -1); err != nil {
			return err
		}
	}

	n, err := c.relations.RemoveFollowsInvolving(ctx, user.ID)
	if err != nil {
		return err
	}
	c.record("followings", n)

	n, err = c.relations.RemovePostLikesByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	c.record("liked_posts", n)

	n, err = c.relations.RemoveCommentLikesByUser(ctx, user.ID)
	if err != nil {
		return err
	}
	c.record("liked_comments", n)

	for _, postID := range ownPostIDs {
		if err := c.deletePost(ctx, postID); err != nil {
			return err
		}
	}

	// Authored comments under other users' posts survive the post cascade
	// and are removed here.
	underOwn := make(map[uint]bool, len(underOwnPosts))
	for _, id := range underOwnPosts {
		underOwn[id] = true
	}
	var strayComments []uint
	for _, id := range authoredCommentIDs {
		if !underOwn[id] {
			strayComments = append(strayComments, id)
		}
	}

	n, err = c.relations.RemoveLikesForComments(ctx, strayComments)
	if err != nil {
		return err
	}
	c.record("liked_comments", n)

	n, err = c.pictures.DeleteByComments(ctx, strayComments)
	if err != nil {
		return err
	}
	c.record("comment_pictures", n)

	n, err = c.comments.DeleteByIDs(ctx, strayComments)
	if err != nil {
		return err
	}
	c.record("comments", n)

	if err := c.users.Delete(ctx, user.ID); err != nil {
		return err
	}
	c.record("users", 1)
	return nil
}
