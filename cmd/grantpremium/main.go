// Command grantpremium applies a purchase to an account by hand, for
// support cases where the billing collaborator never delivered the event.
// It goes through the same reconciler as live notifications, so re-running
// it with the same transaction id is a safe no-op.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"mixmind/internal/adapter/repo"
	"mixmind/internal/domain"
	"mixmind/internal/entitlement"
	"mixmind/internal/infra"
)

func main() {
	var (
		accountFlag     string
		transactionFlag string
		productFlag     string
	)

	flag.StringVar(&accountFlag, "account", "", "account id to grant premium to")
	flag.StringVar(&transactionFlag, "transaction", "", "purchase transaction id (defaults to a generated one)")
	flag.StringVar(&productFlag, "product", "premium_subscription", "product id to record on the entitlement")
	flag.Parse()

	accountID := strings.TrimSpace(accountFlag)
	if accountID == "" {
		exitWithError(errors.New("-account is required"))
	}
	transactionID := strings.TrimSpace(transactionFlag)
	if transactionID == "" {
		transactionID = "manual-" + uuid.NewString()
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "grantpremium").Logger()
	runner := infra.NewSQLRunner(pool, logger)

	store := entitlement.NewStore(repo.NewProfileRepository(runner), logger, 5*time.Second)
	reconciler := entitlement.NewReconciler(store, logger)

	result, err := reconciler.ApplyPurchase(ctx, accountID, domain.PurchaseEvent{
		TransactionID: transactionID,
		ProductID:     strings.TrimSpace(productFlag),
		PurchasedAt:   time.Now().UTC(),
	})
	if err != nil {
		exitWithError(fmt.Errorf("failed to apply purchase: %w", err))
	}

	if !result.Applied {
		fmt.Printf("Transaction %s was already applied to %s, nothing changed\n", transactionID, accountID)
	} else {
		fmt.Printf("Account %s is now premium\n", accountID)
	}
	if ent := result.Profile.ActiveEntitlement; ent != nil {
		fmt.Printf("entitlement_id=%s product_id=%s granted_at=%s\n",
			ent.EntitlementID, ent.ProductID, ent.GrantedAt.Format(time.RFC3339))
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
