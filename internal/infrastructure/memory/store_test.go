package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devifact/DeviFact-sub000/internal/domain/entity"
	"github.com/devifact/DeviFact-sub000/internal/domain/repository"
	"github.com/devifact/DeviFact-sub000/internal/infrastructure/memory"
)

const userID = "user-1"

var errAbandon = errors.New("abandon")

func createQuote(t *testing.T, store *memory.Store, id string) {
	t.Helper()
	err := store.RunDocuments(context.Background(), func(quotes repository.QuoteRepository, _ repository.InvoiceRepository) error {
		seq, err := quotes.AllocateSequence(context.Background(), userID)
		if err != nil {
			return err
		}
		return quotes.Create(context.Background(), &entity.Quote{
			ID:     id,
			UserID: userID,
			Number: fmt.Sprintf("%s%04d", entity.QuoteNumberPrefix, seq),
			Status: entity.QuoteStatusDraft,
		})
	})
	require.NoError(t, err)
}

func TestRun_RetourArriere(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	err := store.RunDocuments(ctx, func(quotes repository.QuoteRepository, _ repository.InvoiceRepository) error {
		seq, err := quotes.AllocateSequence(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 1, seq)
		require.NoError(t, quotes.Create(ctx, &entity.Quote{ID: "q-1", UserID: userID, Number: "DEV-0001"}))
		return errAbandon
	})
	require.ErrorIs(t, err, errAbandon)

	q, err := store.Quotes().GetByID(ctx, userID, "q-1")
	require.NoError(t, err)
	assert.Nil(t, q)
	next, err := store.Quotes().NextSequence(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, next, "le compteur revient à sa valeur d'avant la transaction")
}

func TestRun_CompteurApresSuppression(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	createQuote(t, store, "q-1")

	require.NoError(t, store.Quotes().Delete(ctx, userID, "q-1"))
	next, err := store.Quotes().NextSequence(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, next)
}

// Une écriture hors transaction lancée pendant une transaction qui échoue n'est pas
// effacée par le retour arrière.
func TestRun_EcritureHorsTransactionConservee(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	createQuote(t, store, "q-1")

	started, release := make(chan struct{}), make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- store.RunSubscriptions(ctx, func(subs repository.SubscriptionRepository, _ repository.BillingEventRepository) error {
			close(started)
			<-release
			_, err := subs.Create(ctx, &entity.Subscription{UserID: "user-2"})
			if err != nil {
				return err
			}
			return errAbandon
		})
	}()
	<-started

	deleted := make(chan error, 1)
	go func() { deleted <- store.Quotes().Delete(ctx, userID, "q-1") }()
	trial := make(chan error, 1)
	go func() {
		_, err := store.Subscriptions().Create(ctx, &entity.Subscription{UserID: userID, CreatedAt: time.Now()})
		trial <- err
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	require.ErrorIs(t, <-txDone, errAbandon)
	require.NoError(t, <-deleted)
	require.NoError(t, <-trial)

	q, err := store.Quotes().GetByID(ctx, userID, "q-1")
	require.NoError(t, err)
	assert.Nil(t, q)
	sub, err := store.Subscriptions().GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.NotNil(t, sub)
	other, err := store.Subscriptions().GetByUserID(ctx, "user-2")
	require.NoError(t, err)
	assert.Nil(t, other)
}
