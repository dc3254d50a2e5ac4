package game

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/GenniaApp/cubebattle/crypto"
)

const (
	maxUsernameLength = 15
	joinTimeout       = time.Second * 5
)

type websocketConnection struct {
	socket *websocket.Conn
}

func (wc *websocketConnection) Write(data []byte) error {
	return wc.socket.WriteMessage(websocket.TextMessage, data)
}

func (wc *websocketConnection) Ping() error {
	return wc.socket.WriteMessage(websocket.PingMessage, nil)
}

func (wc *websocketConnection) Read() ([]byte, error) {
	_, p, err := wc.socket.ReadMessage()
	return p, err
}

func (wc *websocketConnection) Close(errCode string) {
	wc.socket.SetWriteDeadline(time.Now().Add(time.Second * 20))
	wc.socket.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, errCode))
	wc.socket.Close()
}

func NewWebsocketConnection(conn *websocket.Conn) websocketConnection {
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(time.Minute))
		return nil
	})
	return websocketConnection{conn}
}

type GameHandler struct {
	lobby    *lobby
	sessions *crypto.SessionManager
	upgrader websocket.Upgrader
}

func NewGameHandler(l *lobby, sessions *crypto.SessionManager, allowedOrigins []string) *GameHandler {
	return &GameHandler{
		lobby:    l,
		sessions: sessions,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

// originChecker allows everything when no origins are configured, matching
// the CORS layer.
func originChecker(allowedOrigins []string) func(r *http.Request) bool {
	if len(allowedOrigins) == 0 {
		return func(r *http.Request) bool { return true }
	}
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := allowed[origin]
		return ok
	}
}

// GetRoomsHandler serves the public room directory.
func (h *GameHandler) GetRoomsHandler(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, h.lobby.ListRooms(ctx.Request.Context()))
}

// CreateRoomHandler registers a room ahead of joining it. roomId and
// roomName query params are optional.
func (h *GameHandler) CreateRoomHandler(ctx *gin.Context) {
	roomId, err := h.lobby.CreateRoom(ctx.Request.Context(), ctx.Query("roomId"), ctx.Query("roomName"))
	if err != nil {
		ctx.JSON(http.StatusOK, gin.H{"success": false, "message": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true, "roomId": roomId})
}

// JoinRoomHandler upgrades the connection and seats the player in the room
// named by the path. A valid session token from a previous connection to
// the same room reclaims that seat instead of taking a new one.
func (h *GameHandler) JoinRoomHandler(ctx *gin.Context) {
	roomId := ctx.Param("roomId")
	username := sanitizeUsername(ctx.Query("username"))
	token := ctx.Query("token")

	conn, err := h.upgrader.Upgrade(ctx.Writer, ctx.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("websocket upgrade failed")
		return
	}
	socket := NewWebsocketConnection(conn)

	if username == "" {
		rejectJoin(&socket, ErrBadUsername.Error())
		return
	}

	reclaimId := ""
	if token != "" {
		playerId, tokenRoomId, err := h.sessions.Verify(token)
		if err == nil && tokenRoomId == roomId {
			reclaimId = playerId
		}
	}

	player := NewPlayer(username, &socket)
	req := roomJoinRequest{
		roomId:    roomId,
		player:    player,
		reclaimId: reclaimId,
		errChan:   make(chan error, 1),
	}

	// the request context dies with the upgrade, use our own deadline
	joinCtx, cancel := context.WithTimeout(context.Background(), joinTimeout)
	defer cancel()
	h.lobby.ForwardPlayerJoinRequestToRoom(joinCtx, req)

	select {
	case err := <-req.errChan:
		if err != nil {
			rejectJoin(&socket, err.Error())
		}
	case <-joinCtx.Done():
		rejectJoin(&socket, "join timed out")
	}
}

func rejectJoin(socket WebsocketConnection, message string) {
	if data, err := json.Marshal(MakePacketRejectJoin(message)); err == nil {
		socket.Write(data)
	}
	socket.Close(message)
}

// sanitizeUsername trims whitespace, strips control characters and caps the
// length. An empty result means the name is unusable.
func sanitizeUsername(username string) string {
	username = strings.TrimSpace(username)
	username = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, username)
	runes := []rune(username)
	if len(runes) > maxUsernameLength {
		runes = runes[:maxUsernameLength]
	}
	return strings.TrimSpace(string(runes))
}
