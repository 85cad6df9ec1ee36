package integration

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	handler "github.com/vncsmyrnk/marathonqa/internal/adapters/handler/http"
	repo "github.com/vncsmyrnk/marathonqa/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/marathonqa/internal/core/ports"
	"github.com/vncsmyrnk/marathonqa/internal/core/services"
)

const jwtSecret = "test-secret"

func setupPostgresContainer(ctx context.Context) (testcontainers.Container, string, error) {
	dbName := "testdb"
	user := "user"
	password := "password"

	pgContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(user),
		postgres.WithPassword(password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, "", err
	}

	return pgContainer, connStr, nil
}

type TestApp struct {
	DB           *sql.DB
	Server       *httptest.Server
	Client       *http.Client
	ReconcileSvc ports.ReconcileService
	DBContainer  testcontainers.Container
}

func setupTestApp(t *testing.T) *TestApp {
	ctx := context.Background()
	dbContainer, dbURL, err := setupPostgresContainer(ctx)
	require.NoError(t, err)

	db, err := repo.Open(ctx, dbURL)
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(ctx, db))

	log, _ := logtest.NewNullLogger()

	questionRepo := repo.NewQuestionRepository(db)
	answerRepo := repo.NewAnswerRepository(db)
	voteRepo := repo.NewVoteRepository(db)
	tallyRepo := repo.NewTallyRepository(db)
	tx := repo.NewTransactor(db)

	questionSvc := services.NewQuestionService(questionRepo, answerRepo, voteRepo, tx, log)
	answerSvc := services.NewAnswerService(answerRepo, questionRepo, voteRepo, tx, log)
	voteSvc := services.NewVoteService(voteRepo, tallyRepo, tallyRepo, tx,
		services.VoteServiceConfig{MaxAttempts: 5, RetryDelay: 5 * time.Millisecond}, log)
	reconcileSvc := services.NewReconcileService(questionRepo, answerRepo, tallyRepo, 4, log)

	router := handler.NewHandler(handler.RouterConfig{
		Questions:      handler.NewQuestionHandler(questionSvc, log),
		Answers:        handler.NewAnswerHandler(answerSvc, log),
		Votes:          handler.NewVoteHandler(voteSvc, log),
		Auth:           handler.NewAuthMiddleware(jwtSecret, log),
		VoteLimiter:    handler.NewRateLimiter(1000, 1000, log),
		AllowedOrigins: []string{"*"},
		Logger:         log,
	})

	server := httptest.NewServer(router)

	return &TestApp{
		DB:           db,
		Server:       server,
		Client:       server.Client(),
		ReconcileSvc: reconcileSvc,
		DBContainer:  dbContainer,
	}
}

func (app *TestApp) Teardown(t *testing.T) {
	app.Server.Close()
	app.DB.Close()
	if err := app.DBContainer.Terminate(context.Background()); err != nil {
		t.Logf("failed to terminate container: %v", err)
	}
}

func createToken(t *testing.T) (uuid.UUID, string) {
	t.Helper()

	userID := uuid.New()
	claims := jwt.MapClaims{
		"sub": userID.String(),
		"exp": time.Now().Add(15 * time.Minute).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(jwtSecret))
	require.NoError(t, err)
	return userID, signedToken
}

// do sends an authenticated JSON request when token is not empty. The caller
// closes the body.
func (app *TestApp) do(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, app.Server.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "access_token", Value: token})
	}

	resp, err := app.Client.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}
