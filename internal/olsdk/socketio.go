package olsdk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
)

// Overleaf's realtime channel still speaks the socket.io 0.9 wire protocol:
// an HTTP handshake returning a session id, then framed messages over a
// websocket. Only the joinProject call is needed here, to learn the folder
// tree and the root folder id for uploads.

const (
	sioHandshakePath = "/socket.io/1/"
	sioWebsocketPath = "/socket.io/1/websocket/"

	sioFrameConnect   = "1::"
	sioFrameHeartbeat = "2::"
	sioFrameEvent     = "5:1+::"
	sioFrameAck       = "6:::1+"

	joinProjectTimeout = 30 * time.Second
)

// ProjectInfo is the detailed project state returned by joinProject.
type ProjectInfo struct {
	ID         string    `json:"_id"`
	Name       string    `json:"name"`
	RootFolder []*Folder `json:"rootFolder"`
}

// Folder is one node of the project's folder tree.
type Folder struct {
	ID       string     `json:"_id"`
	Name     string     `json:"name"`
	Folders  []*Folder  `json:"folders"`
	Docs     []*FileRef `json:"docs"`
	FileRefs []*FileRef `json:"fileRefs"`
}

// FileRef is a document or binary file reference inside a folder.
type FileRef struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

// RootFolderID returns the id of the project's root folder.
func (p *ProjectInfo) RootFolderID() string {
	if len(p.RootFolder) == 0 {
		return ""
	}
	return p.RootFolder[0].ID
}

type joinProjectArgs struct {
	ProjectID string `json:"project_id"`
}

type joinProjectEvent struct {
	Name string            `json:"name"`
	Args []joinProjectArgs `json:"args"`
}

// JoinProject fetches the detailed project info over the realtime channel.
func (c *Client) JoinProject(ctx context.Context, projectID string) (*ProjectInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, joinProjectTimeout)
	defer cancel()

	sid, err := c.socketHandshake(ctx)
	if err != nil {
		return nil, err
	}

	wsURL := httpToWs(c.baseURL) + sioWebsocketPath + sid
	header := http.Header{}
	header.Set("Cookie", c.session.CookieHeader())

	conn, _, err := websocket.Dial(ctx, wsURL, &websocket.DialOptions{
		HTTPHeader: header,
	})
	if err != nil {
		return nil, fmt.Errorf("realtime connect: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "done")

	// Raise the limit; large projects return sizeable folder trees.
	conn.SetReadLimit(16 * 1024 * 1024)

	joined := false
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return nil, fmt.Errorf("realtime read: %w", err)
		}
		frame := string(data)

		switch {
		case strings.HasPrefix(frame, sioFrameConnect):
			if joined {
				continue
			}
			joined = true

			event, err := json.Marshal(&joinProjectEvent{
				Name: "joinProject",
				Args: []joinProjectArgs{{ProjectID: projectID}},
			})
			if err != nil {
				return nil, err
			}
			if err := conn.Write(ctx, websocket.MessageText, []byte(sioFrameEvent+string(event))); err != nil {
				return nil, fmt.Errorf("realtime write: %w", err)
			}

		case strings.HasPrefix(frame, sioFrameHeartbeat):
			if err := conn.Write(ctx, websocket.MessageText, []byte(sioFrameHeartbeat)); err != nil {
				return nil, fmt.Errorf("realtime heartbeat: %w", err)
			}

		case strings.HasPrefix(frame, sioFrameAck):
			return parseJoinProjectAck(strings.TrimPrefix(frame, sioFrameAck))
		}
	}
}

// socketHandshake performs the socket.io polling handshake and returns the
// session id for the websocket upgrade.
func (c *Client) socketHandshake(ctx context.Context) (string, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParam("t", fmt.Sprintf("%d", time.Now().Unix())).
		Get(sioHandshakePath)
	if err := handleAPIError(resp, err, "realtime handshake"); err != nil {
		return "", err
	}

	body, err := resp.ToString()
	if err != nil {
		return "", fmt.Errorf("realtime handshake body: %w", err)
	}

	// sessionid:heartbeat_timeout:close_timeout:transports
	parts := strings.SplitN(body, ":", 2)
	if len(parts) < 2 || parts[0] == "" {
		return "", fmt.Errorf("realtime handshake: unexpected response %q", body)
	}
	return parts[0], nil
}

// parseJoinProjectAck unwraps the joinProject ack payload:
// [error, projectInfo, permissionsLevel, protocolVersion]
func parseJoinProjectAck(payload string) (*ProjectInfo, error) {
	var args []json.RawMessage
	if err := json.Unmarshal([]byte(payload), &args); err != nil {
		return nil, fmt.Errorf("parse joinProject ack: %w", err)
	}
	if len(args) < 2 {
		return nil, fmt.Errorf("joinProject ack has %d args", len(args))
	}

	if string(args[0]) != "null" {
		return nil, fmt.Errorf("joinProject failed: %s", string(args[0]))
	}

	var info ProjectInfo
	if err := json.Unmarshal(args[1], &info); err != nil {
		return nil, fmt.Errorf("parse project info: %w", err)
	}
	if info.RootFolderID() == "" {
		return nil, fmt.Errorf("project info has no root folder")
	}
	return &info, nil
}

func httpToWs(url string) string {
	switch {
	case strings.HasPrefix(url, "https://"):
		return "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		return "ws://" + strings.TrimPrefix(url, "http://")
	default:
		return url
	}
}
