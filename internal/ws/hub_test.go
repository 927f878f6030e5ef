package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"investx/config"
	"investx/internal/apperr"
	"investx/internal/auth"
	"investx/internal/domain"
	"investx/internal/models"
	"investx/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtCfg = &config.JWTConfig{
	AccessSecret:  "ws-access",
	RefreshSecret: "ws-refresh",
	AccessExpiry:  time.Hour,
	RefreshExpiry: time.Hour,
	Issuer:        "investx-test",
}

type loader map[uint]*models.Account

func (l loader) Profile(_ context.Context, id uint) (*models.Account, error) {
	a, ok := l[id]
	if !ok {
		return nil, apperr.ErrAccountNotFound
	}
	return a, nil
}

func TestHubPublishesOnlyToOwner(t *testing.T) {
	t.Parallel()

	hub := ws.NewHub()
	mine := ws.NewClient(1)
	other := ws.NewClient(2)
	hub.Register(mine)
	hub.Register(other)
	assert.Equal(t, 2, hub.ClientCount())

	hub.PublishAccount(&models.Account{ID: 1, Balance: 700})

	select {
	case msg := <-mine.Send:
		var got ws.AccountUpdate
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.Equal(t, "account_updated", got.Type)
		assert.Equal(t, int64(700), got.Account.Balance)
	default:
		t.Fatal("owner did not receive the update")
	}
	assert.Empty(t, other.Send)

	mine.Close()
	mine.Close()
	assert.Equal(t, 1, hub.ClientCount())
	hub.PublishAccount(&models.Account{ID: 1})
}

func TestHubDropsWhenClientIsSlow(t *testing.T) {
	t.Parallel()

	hub := ws.NewHub()
	c := ws.NewClient(5)
	hub.Register(c)
	for i := 0; i < cap(c.Send)+10; i++ {
		hub.PublishAccount(&models.Account{ID: 5, Balance: int64(i)})
	}
	assert.Len(t, c.Send, cap(c.Send))
}

func newServer(t *testing.T, hub *ws.Hub) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	accounts := loader{3: {ID: 3, Name: "Ama", Balance: 100}}
	r.GET("/ws/account", ws.UpgradeAccountWS(jwtCfg, hub, accounts, ws.NewUpgrader(nil)))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestUpgradeStreamsAccountUpdates(t *testing.T) {
	t.Parallel()

	hub := ws.NewHub()
	srv := newServer(t, hub)
	token, err := auth.GenerateAccessToken(jwtCfg, 3, "ama@example.com", domain.RoleUser)
	require.NoError(t, err)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/account?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var first ws.AccountUpdate
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, int64(100), first.Account.Balance)

	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)
	hub.PublishAccount(&models.Account{ID: 3, Balance: 900})

	var next ws.AccountUpdate
	require.NoError(t, conn.ReadJSON(&next))
	assert.Equal(t, int64(900), next.Account.Balance)
}

func TestUpgradeRejectsBadTokens(t *testing.T) {
	t.Parallel()

	srv := newServer(t, ws.NewHub())
	base := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/account"
	admin, err := auth.GenerateAccessToken(jwtCfg, 3, "root@example.com", domain.RoleAdmin)
	require.NoError(t, err)

	for _, q := range []string{"", "?token=garbage", "?token=" + admin} {
		_, resp, err := websocket.DefaultDialer.Dial(base+q, nil)
		require.Error(t, err, q)
		require.NotNil(t, resp, q)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, q)
		resp.Body.Close()
	}
}
