// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	goredis "github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/holomush/accounts/internal/account"
	accountpg "github.com/holomush/accounts/internal/account/postgres"
	accountredis "github.com/holomush/accounts/internal/account/redis"
	"github.com/holomush/accounts/internal/graph"
	"github.com/holomush/accounts/internal/server"
	"github.com/holomush/accounts/internal/store"
)

const (
	createUser = `mutation($data: UserCreateInput!) { createUser(data: $data) { id username email isMaster } }`
	login      = `mutation($data: UserLoginInput!) { login(data: $data) { id username email } }`
	changePwd  = `mutation($data: UserChangePasswordInput!) { changePassword(data: $data) { id } }`
	deleteUser = `mutation($data: UserDeleteInput!) { deleteUser(data: $data) }`
	me         = `{ me { id username } }`
	logout     = `{ logout { success } }`
)

type result struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []graph.FormattedError     `json:"errors"`
}

// browser is one HTTP client with its own cookie jar.
type browser struct {
	url  string
	http *http.Client
}

func (b *browser) do(query string, data map[string]any) result {
	GinkgoHelper()
	body := map[string]any{"query": query}
	if data != nil {
		body["variables"] = map[string]any{"data": data}
	}
	payload, err := json.Marshal(body)
	Expect(err).NotTo(HaveOccurred())

	resp, err := b.http.Post(b.url+server.GraphQLPath, "application/json", bytes.NewReader(payload))
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()
	Expect(resp.StatusCode).To(Equal(http.StatusOK))

	var res result
	Expect(json.NewDecoder(resp.Body).Decode(&res)).To(Succeed())
	return res
}

func (b *browser) ok(query string, data map[string]any) result {
	GinkgoHelper()
	res := b.do(query, data)
	Expect(res.Errors).To(BeEmpty())
	return res
}

func (b *browser) errorCode(query string, data map[string]any) string {
	GinkgoHelper()
	res := b.do(query, data)
	Expect(res.Errors).NotTo(BeEmpty())
	return res.Errors[0].Code
}

func newUser(username, email string) map[string]any {
	return map[string]any{
		"name":     "Integration User",
		"username": username,
		"email":    email,
		"password": "Abcdef1!",
	}
}

var _ = Describe("accounts API", Ordered, func() {
	var (
		ctx       context.Context
		container *postgres.PostgresContainer
		pool      *pgxpool.Pool
		mr        *miniredis.Miniredis
		rdb       *goredis.Client
		srv       *httptest.Server
	)

	newBrowser := func() *browser {
		jar, err := cookiejar.New(nil)
		Expect(err).NotTo(HaveOccurred())
		return &browser{url: srv.URL, http: &http.Client{Transport: srv.Client().Transport, Jar: jar}}
	}

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

		connStr, err := container.ConnectionString(ctx, "sslmode=disable")
		Expect(err).NotTo(HaveOccurred())

		migrator, err := store.NewMigrator(connStr)
		Expect(err).NotTo(HaveOccurred())
		Expect(migrator.Up()).To(Succeed())
		Expect(migrator.Close()).To(Succeed())

		opts := store.ConnectOptions{Retries: 3, MaxConns: 8}
		pool, err = store.Connect(ctx, connStr, opts)
		Expect(err).NotTo(HaveOccurred())

		mr, err = miniredis.Run()
		Expect(err).NotTo(HaveOccurred())
		rdb, err = store.ConnectRedis(ctx, "redis://"+mr.Addr()+"/0", opts)
		Expect(err).NotTo(HaveOccurred())

		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		repo := accountpg.NewUserRepository(pool)
		tx := accountpg.NewTransactor(pool)
		hasher := account.NewArgon2idHasher()
		sessions := accountredis.NewSessionStore(rdb)

		users, err := account.NewUserServiceWithLogger(repo, tx, hasher, logger)
		Expect(err).NotTo(HaveOccurred())
		auth, err := account.NewAuthServiceWithLogger(repo, tx, hasher, logger)
		Expect(err).NotTo(HaveOccurred())
		resolver, err := graph.NewResolver(users, auth, sessions, logger, nil)
		Expect(err).NotTo(HaveOccurred())
		schema, err := graph.NewSchema(resolver)
		Expect(err).NotTo(HaveOccurred())

		handler := graph.NewHandler(schema, sessions, users, logger, nil)
		srv = httptest.NewTLSServer(server.NewRouter(handler, logger))
	})

	AfterAll(func() {
		if srv != nil {
			srv.Close()
		}
		if rdb != nil {
			_ = rdb.Close()
		}
		if mr != nil {
			mr.Close()
		}
		if pool != nil {
			pool.Close()
		}
		if container != nil {
			_ = container.Terminate(ctx)
		}
	})

	It("registers, logs in and resolves the session user", func() {
		b := newBrowser()
		b.ok(createUser, newUser("ana", "ana@x.com"))

		Expect(b.errorCode(me, nil)).To(Equal(account.CodePermissionDenied))

		b.ok(login, map[string]any{"email": "ana@x.com", "password": "Abcdef1!"})
		res := b.ok(me, nil)
		Expect(string(res.Data["me"])).To(ContainSubstring(`"username":"ana"`))

		b.ok(logout, nil)
		Expect(b.errorCode(me, nil)).To(Equal(account.CodePermissionDenied))
	})

	It("maps unique constraint violations to domain errors", func() {
		b := newBrowser()
		b.ok(createUser, newUser("bruno", "bruno@x.com"))

		Expect(b.errorCode(createUser, newUser("bruno2", "bruno@x.com"))).To(Equal(account.CodeDuplicateEmail))
		Expect(b.errorCode(createUser, newUser("bruno", "bruno2@x.com"))).To(Equal(account.CodeDuplicateUsername))
	})

	It("lets exactly one concurrent registration claim a username", func() {
		const attempts = 5
		codes := make([]string, attempts)

		var wg sync.WaitGroup
		for i := range attempts {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				b := newBrowser()
				res := b.do(createUser, newUser("carla", fmt.Sprintf("carla%d@x.com", i)))
				if len(res.Errors) > 0 {
					codes[i] = res.Errors[0].Code
				}
			}()
		}
		wg.Wait()

		succeeded := 0
		for _, code := range codes {
			if code == "" {
				succeeded++
				continue
			}
			Expect(code).To(Equal(account.CodeDuplicateUsername))
		}
		Expect(succeeded).To(Equal(1))
	})

	It("rejects the old password after a change", func() {
		b := newBrowser()
		b.ok(createUser, newUser("dora", "dora@x.com"))
		b.ok(login, map[string]any{"email": "dora@x.com", "password": "Abcdef1!"})
		b.ok(changePwd, map[string]any{"currentPassword": "Abcdef1!", "newPassword": "Newpass1!"})

		other := newBrowser()
		Expect(other.errorCode(login, map[string]any{"email": "dora@x.com", "password": "Abcdef1!"})).
			To(Equal(account.CodeInvalidCredentials))
		other.ok(login, map[string]any{"email": "dora@x.com", "password": "Newpass1!"})
	})

	It("deletes the account and every trace of its session", func() {
		b := newBrowser()
		b.ok(createUser, newUser("eva", "eva@x.com"))
		b.ok(login, map[string]any{"email": "eva@x.com", "password": "Abcdef1!"})
		sessionsBefore := len(mr.Keys())

		res := b.ok(deleteUser, map[string]any{"password": "Abcdef1!"})
		Expect(string(res.Data["deleteUser"])).To(Equal("true"))
		Expect(mr.Keys()).To(HaveLen(sessionsBefore - 1))

		Expect(b.errorCode(me, nil)).To(Equal(account.CodePermissionDenied))
		Expect(b.errorCode(login, map[string]any{"email": "eva@x.com", "password": "Abcdef1!"})).
			To(Equal(account.CodeUserNotFound))
	})
})
