package main

import (
	"context"
	"fmt"
	"strings"

	"optical-franchise/internal/api"
	"optical-franchise/internal/common/validation"
	"optical-franchise/internal/plans"
	"optical-franchise/internal/products"
	"optical-franchise/internal/users"

	"github.com/jmoiron/sqlx"
)

type seedPlan struct {
	Name               string
	Tier               string
	Description        string
	ConsultationsLimit *int
	MeasurementsLimit  *int
	PriceCents         int64
}

func limit(n int) *int {
	return &n
}

// defaultPlans is the starter catalog. A nil limit means unlimited.
func defaultPlans() []seedPlan {
	return []seedPlan{
		{
			Name:               "Básico",
			Tier:               plans.TierBasic,
			Description:        "Uma consulta e duas medições digitais por mês",
			ConsultationsLimit: limit(1),
			MeasurementsLimit:  limit(2),
			PriceCents:         2990,
		},
		{
			Name:               "Gold",
			Tier:               plans.TierGold,
			Description:        "Três consultas e medições com análise por IA",
			ConsultationsLimit: limit(3),
			MeasurementsLimit:  limit(10),
			PriceCents:         5990,
		},
		{
			Name:        "Premium",
			Tier:        plans.TierPremium,
			Description: "Consultas e medições ilimitadas com prioridade no agendamento",
			PriceCents:  9990,
		},
	}
}

const upsertPlanQuery = `
	INSERT INTO plans (name, tier, description, consultations_limit, measurements_limit, price_cents, active)
	VALUES ($1, $2, $3, $4, $5, $6, TRUE)
	ON CONFLICT (tier) DO UPDATE SET
		name = EXCLUDED.name,
		description = EXCLUDED.description,
		consultations_limit = EXCLUDED.consultations_limit,
		measurements_limit = EXCLUDED.measurements_limit,
		price_cents = EXCLUDED.price_cents,
		updated_at = NOW()`

// seedPlans upserts by tier inside one transaction.
func seedPlans(ctx context.Context, db *sqlx.DB, seeds []seedPlan) (int, error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, p := range seeds {
		if _, err := tx.ExecContext(ctx, upsertPlanQuery,
			p.Name, p.Tier, p.Description, p.ConsultationsLimit, p.MeasurementsLimit, p.PriceCents,
		); err != nil {
			return 0, fmt.Errorf("seed plan %s: %w", p.Tier, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(seeds), nil
}

type adminAccount struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func createAdmin(ctx context.Context, svc users.Service, email, name, password string) (*users.User, error) {
	email = strings.TrimSpace(email)
	if result := validation.ValidateStruct(adminAccount{Email: email, Name: name, Password: password}); !result.Valid {
		return nil, fmt.Errorf("invalid admin account: %s", result.Summary())
	}
	return svc.Create(ctx, users.CreateUserRequest{
		Email:    email,
		Password: password,
		Name:     name,
		Role:     api.RoleAdmin,
	})
}

// reindexProducts pushes every catalog row to the index and keeps going past
// individual failures.
func reindexProducts(ctx context.Context, repo products.Repository, index products.Index) (int, int, error) {
	all, err := repo.List(ctx, products.ListFilter{})
	if err != nil {
		return 0, 0, fmt.Errorf("list products: %w", err)
	}

	indexed, failed := 0, 0
	for i := range all {
		if err := index.Put(ctx, &all[i]); err != nil {
			fmt.Printf("  product %d (%s): %v\n", all[i].ID, all[i].SKU, err)
			failed++
			continue
		}
		indexed++
	}
	return indexed, failed, nil
}
