package spectate

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/tatianab/tribute-sim/internal/stats"
)

// StatsReader is the read side of the stats store.
type StatsReader interface {
	Leaderboard(ctx context.Context, sortKey string, limit int) ([]stats.PlayerStats, error)
	Player(ctx context.Context, userID string) (stats.PlayerStats, error)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // spectators are read-only
	},
}

// NewRouter serves the spectator websocket and the stats endpoints.
func NewRouter(hub *Hub, st StatsReader) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET("/health", func(ctx *gin.Context) { ctx.String(http.StatusOK, "healthy") })

	r.GET("/leaderboard", func(ctx *gin.Context) {
		limit, err := strconv.Atoi(ctx.DefaultQuery("limit", "10"))
		if err != nil || limit < 1 || limit > 100 {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-limit"})
			return
		}
		rows, err := st.Leaderboard(ctx.Request.Context(), ctx.DefaultQuery("sort", "wins"), limit)
		if errors.Is(err, stats.ErrUnknownSortKey) {
			ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid-sort"})
			return
		}
		if err != nil {
			hub.log.Error().Err(err).Msg("leaderboard query failed")
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
			return
		}
		if rows == nil {
			rows = []stats.PlayerStats{}
		}
		ctx.JSON(http.StatusOK, rows)
	})

	r.GET("/players/:id", func(ctx *gin.Context) {
		ps, err := st.Player(ctx.Request.Context(), ctx.Param("id"))
		if errors.Is(err, stats.ErrPlayerNotFound) {
			ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "player-not-found"})
			return
		}
		if err != nil {
			hub.log.Error().Err(err).Msg("player query failed")
			ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "unknown-error"})
			return
		}
		ctx.JSON(http.StatusOK, ps)
	})

	r.GET("/ws", func(ctx *gin.Context) {
		conn, err := upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
		if err != nil {
			hub.log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
			return
		}
		hub.Attach(conn)
	})

	return r
}
