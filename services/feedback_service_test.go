package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kendall-kelly/home-therapy-api/models"
	"github.com/kendall-kelly/home-therapy-api/tests/testutil"
	"github.com/kendall-kelly/home-therapy-api/utils"
)

func TestCreateFeedback_RecomputesRating(t *testing.T) {
	env := newTestEnv(t)
	b := env.newBooking(t)
	first := env.order(t, b, models.OrderStatusCompleted)
	second := env.order(t, b, models.OrderStatusCompleted)
	svc := NewFeedbackService(env.store, env.events, env.log)
	ctx := t.Context()

	assert.Equal(t, models.DefaultTherapistRating, env.reloadTherapist(t, b.therapist.ID).Rating)

	feedback, err := svc.CreateFeedback(ctx, b.user.ID, first.ID, FeedbackInput{
		Rating:  4.5,
		Content: " great pressure ",
		Tags:    []string{"professional", " ", "professional", "punctual"},
	})
	require.NoError(t, err)
	assert.Equal(t, b.therapist.ID, feedback.TherapistID)
	assert.Equal(t, "great pressure", feedback.Content)
	assert.Equal(t, []string{"professional", "punctual"}, []string(feedback.Tags))
	assert.Equal(t, 4.5, env.reloadTherapist(t, b.therapist.ID).Rating)

	_, err = svc.CreateFeedback(ctx, b.user.ID, second.ID, FeedbackInput{Rating: 4})
	require.NoError(t, err)
	// mean 4.25 rounds to 4.3
	assert.Equal(t, 4.3, env.reloadTherapist(t, b.therapist.ID).Rating)

	assert.Equal(t, []string{EventFeedbackCreated, EventFeedbackCreated}, env.events.Types())
}

func TestCreateFeedback_SecondFeedbackConflicts(t *testing.T) {
	env := newTestEnv(t)
	b := env.newBooking(t)
	order := env.order(t, b, models.OrderStatusCompleted)
	svc := NewFeedbackService(env.store, env.events, env.log)

	_, err := svc.CreateFeedback(t.Context(), b.user.ID, order.ID, FeedbackInput{Rating: 5})
	require.NoError(t, err)

	_, err = svc.CreateFeedback(t.Context(), b.user.ID, order.ID, FeedbackInput{Rating: 1})
	requireConflict(t, err, "order already has feedback")
	assert.Equal(t, 5.0, env.reloadTherapist(t, b.therapist.ID).Rating)
}

func TestCreateFeedback_Rejections(t *testing.T) {
	env := newTestEnv(t)
	b := env.newBooking(t)
	stranger := testutil.CreateUser(t, env.db, "auth0|stranger")
	completed := env.order(t, b, models.OrderStatusCompleted)
	inService := env.order(t, b, models.OrderStatusInService)
	svc := NewFeedbackService(env.store, env.events, env.log)
	ctx := t.Context()

	for _, rating := range []float64{0, 0.9, 5.1, -1} {
		_, err := svc.CreateFeedback(ctx, b.user.ID, completed.ID, FeedbackInput{Rating: rating})
		requireValidation(t, err, "rating must be between")
	}

	_, err := svc.CreateFeedback(ctx, b.user.ID, inService.ID, FeedbackInput{Rating: 4})
	requireNotFound(t, err, "order not found or not completed")

	_, err = svc.CreateFeedback(ctx, stranger.ID, completed.ID, FeedbackInput{Rating: 4})
	requireNotFound(t, err, "order not found or not completed")

	tags := make([]string, maxFeedbackTags+1)
	for i := range tags {
		tags[i] = fmt.Sprintf("tag-%d", i)
	}
	_, err = svc.CreateFeedback(ctx, b.user.ID, completed.ID, FeedbackInput{Rating: 4, Tags: tags})
	requireValidation(t, err, "tags")

	assert.Empty(t, env.events.Events())
}

func TestUpdateFeedback(t *testing.T) {
	env := newTestEnv(t)
	b := env.newBooking(t)
	stranger := testutil.CreateUser(t, env.db, "auth0|stranger")
	order := env.order(t, b, models.OrderStatusCompleted)
	svc := NewFeedbackService(env.store, env.events, env.log)
	ctx := t.Context()

	feedback, err := svc.CreateFeedback(ctx, b.user.ID, order.ID, FeedbackInput{Rating: 5, Content: "ok"})
	require.NoError(t, err)

	rating := 3.0
	content := "could be better"
	updated, err := svc.UpdateFeedback(ctx, b.user.ID, feedback.ID, FeedbackUpdate{Rating: &rating, Content: &content})
	require.NoError(t, err)
	assert.Equal(t, 3.0, updated.Rating)
	assert.Equal(t, "could be better", updated.Content)
	assert.Equal(t, 3.0, env.reloadTherapist(t, b.therapist.ID).Rating)

	_, err = svc.UpdateFeedback(ctx, stranger.ID, feedback.ID, FeedbackUpdate{Rating: &rating})
	requireNotFound(t, err, "feedback not found")

	_, err = svc.UpdateFeedback(ctx, b.user.ID, feedback.ID, FeedbackUpdate{})
	requireValidation(t, err, "nothing to update")

	bad := 6.0
	_, err = svc.UpdateFeedback(ctx, b.user.ID, feedback.ID, FeedbackUpdate{Rating: &bad})
	requireValidation(t, err, "rating must be between")
}

func TestDeleteFeedback_RestoresDefaultRating(t *testing.T) {
	env := newTestEnv(t)
	b := env.newBooking(t)
	order := env.order(t, b, models.OrderStatusCompleted)
	svc := NewFeedbackService(env.store, env.events, env.log)
	ctx := t.Context()

	feedback, err := svc.CreateFeedback(ctx, b.user.ID, order.ID, FeedbackInput{Rating: 2})
	require.NoError(t, err)
	assert.Equal(t, 2.0, env.reloadTherapist(t, b.therapist.ID).Rating)

	require.NoError(t, svc.DeleteFeedback(ctx, b.user.ID, feedback.ID))
	assert.Equal(t, models.DefaultTherapistRating, env.reloadTherapist(t, b.therapist.ID).Rating)

	_, err = svc.GetFeedback(ctx, feedback.ID)
	requireNotFound(t, err, "feedback not found")

	err = svc.DeleteFeedback(ctx, b.user.ID, feedback.ID)
	requireNotFound(t, err, "feedback not found")

	assert.Equal(t, []string{EventFeedbackCreated, EventFeedbackDeleted}, env.events.Types())
}

func TestListFeedbacks(t *testing.T) {
	env := newTestEnv(t)
	b := env.newBooking(t)
	svc := NewFeedbackService(env.store, env.events, env.log)
	ctx := t.Context()

	for i := 0; i < 3; i++ {
		order := env.order(t, b, models.OrderStatusCompleted)
		_, err := svc.CreateFeedback(ctx, b.user.ID, order.ID, FeedbackInput{Rating: 5})
		require.NoError(t, err)
	}

	feedbacks, total, err := svc.ListTherapistFeedbacks(ctx, b.therapist.ID, utils.NewPagination(1, 2))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, feedbacks, 2)

	feedbacks, total, err = svc.ListUserFeedbacks(ctx, b.user.ID, utils.NewPagination(2, 2))
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, feedbacks, 1)

	_, _, err = svc.ListTherapistFeedbacks(ctx, 9999, utils.NewPagination(1, 10))
	requireNotFound(t, err, "therapist not found")
}

func TestRoundRating(t *testing.T) {
	assert.Equal(t, 4.3, roundRating(4.25))
	assert.Equal(t, 4.7, roundRating(14.0/3.0))
	assert.Equal(t, 1.0, roundRating(1))
}
