//go:build integration

// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package store_test

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/accounts/internal/account"
	accountpg "github.com/holomush/accounts/internal/account/postgres"
	"github.com/holomush/accounts/internal/store"
)

var _ = Describe("users schema", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		connStr   string
		pool      *pgxpool.Pool
		migrator  *store.Migrator
	)

	BeforeAll(func() {
		ctx = context.Background()

		var err error
		container, err = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("accounts_test"),
			postgres.WithUsername("accounts"),
			postgres.WithPassword("accounts"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second),
			),
		)
		Expect(err).NotTo(HaveOccurred())

		connStr, err = container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		migrator, err = store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())

		pool, err = store.Connect(ctx, connStr, store.ConnectOptions{Retries: 3, MaxConns: 4})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterAll(func() {
		if pool != nil {
			pool.Close()
		}
		if migrator != nil {
			_ = migrator.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	It("reports every embedded migration as applied", func() {
		status, err := migrator.Status()
		Expect(err).NotTo(HaveOccurred())
		Expect(status.Pending).To(BeEmpty())
		Expect(status.Dirty).To(BeFalse())
	})

	Describe("user repository", func() {
		var (
			repo *accountpg.UserRepository
			txr  *accountpg.Transactor
		)

		BeforeEach(func() {
			_, err := pool.Exec(ctx, `TRUNCATE users`)
			Expect(err).NotTo(HaveOccurred())
			repo = accountpg.NewUserRepository(pool)
			txr = accountpg.NewTransactor(pool)
		})

		insert := func(username, email string) *account.User {
			u := &account.User{Name: "Ana Silva", Username: username, Email: email, PasswordHash: "hash"}
			Expect(repo.Insert(ctx, u)).To(Succeed())
			Expect(repo.Refresh(ctx, u)).To(Succeed())
			return u
		}

		It("generates ids and server-side defaults", func() {
			u := insert("anas", "ana@x.com")
			Expect(u.ID).NotTo(Equal(uuid.Nil))
			Expect(u.ID.Version()).To(Equal(uuid.Version(4)))
			Expect(u.IsMaster).To(BeFalse())
			Expect(u.CreatedAt).NotTo(BeZero())
		})

		It("reports the violated unique index", func() {
			insert("anas", "ana@x.com")

			err := repo.Insert(ctx, &account.User{Name: "Ana Souza", Username: "anas2", Email: "ana@x.com", PasswordHash: "h"})
			var constraintErr *account.ConstraintError
			Expect(errors.As(err, &constraintErr)).To(BeTrue())
			Expect(constraintErr.Constraint).To(Equal(account.ConstraintUserEmail))

			err = repo.Insert(ctx, &account.User{Name: "Ana Souza", Username: "anas", Email: "ana2@x.com", PasswordHash: "h"})
			Expect(errors.As(err, &constraintErr)).To(BeTrue())
			Expect(constraintErr.Constraint).To(Equal(account.ConstraintUserUsername))
		})

		It("bumps updated_at on update", func() {
			u := insert("anas", "ana@x.com")
			before := u.UpdatedAt

			u.Name = "Ana Souza"
			Expect(repo.Update(ctx, u)).To(Succeed())
			Expect(repo.Refresh(ctx, u)).To(Succeed())
			Expect(u.Name).To(Equal("Ana Souza"))
			Expect(u.UpdatedAt).To(BeTemporally(">=", before))
		})

		It("rolls back a failed transaction", func() {
			err := txr.InTransaction(ctx, func(ctx context.Context) error {
				Expect(repo.Insert(ctx, &account.User{Name: "Ana Silva", Username: "anas", Email: "ana@x.com", PasswordHash: "h"})).To(Succeed())
				return repo.Insert(ctx, &account.User{Name: "Ana Souza", Username: "anas", Email: "other@x.com", PasswordHash: "h"})
			})
			Expect(err).To(HaveOccurred())

			_, err = repo.GetByEmail(ctx, "ana@x.com")
			Expect(err).To(MatchError(account.ErrNotFound))
		})

		It("deletes users", func() {
			u := insert("anas", "ana@x.com")
			Expect(repo.Delete(ctx, u.ID)).To(Succeed())
			Expect(repo.Delete(ctx, u.ID)).To(MatchError(account.ErrNotFound))
		})
	})

	It("rolls the schema back and forward", func() {
		Expect(migrator.Down()).To(Succeed())
		version, _, err := migrator.Version()
		Expect(err).NotTo(HaveOccurred())
		Expect(version).To(BeZero())

		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Steps(-1)).To(Succeed())
		Expect(migrator.Steps(1)).To(Succeed())
	})
})
