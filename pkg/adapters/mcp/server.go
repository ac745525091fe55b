// Package mcp exposes the donation conversation as Model Context Protocol
// tools so agents can drive and inspect sessions.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/donorline"
	"github.com/aretw0/donorline/internal/logging"
	"github.com/aretw0/donorline/internal/presentation/graph"
	"github.com/aretw0/donorline/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const flowURI = "donorline://flow"

// Engine defines what the MCP server needs from donorline.Engine.
type Engine interface {
	HandleMessage(ctx context.Context, from, text string) (string, error)
	CheckInactivity(ctx context.Context, phone string) (bool, error)
	Session(ctx context.Context, phone string) (*domain.Session, error)
	Reset(ctx context.Context, phone string) error
}

// SessionResponse is returned by tools that report a sender's session.
type SessionResponse struct {
	Found   bool            `json:"found" jsonschema_description:"Whether the sender has a stored session"`
	Session *domain.Session `json:"session,omitempty" jsonschema_description:"The stored session"`
}

// SMSResponse is returned by simulate_sms.
type SMSResponse struct {
	Reply string `json:"reply" jsonschema_description:"The SMS sent back to the sender"`
	SessionResponse
}

// InactivityResponse is returned by check_inactivity.
type InactivityResponse struct {
	Nudged bool `json:"nudged" jsonschema_description:"Whether the idle reminder was sent"`
}

type smsArgs struct {
	From string `json:"from"`
	Body string `json:"body"`
}

type phoneArgs struct {
	Phone string `json:"phone"`
}

// Server wraps the engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{
		engine:    engine,
		logger:    logger,
		mcpServer: server.NewMCPServer("donorline-mcp", strings.TrimSpace(donorline.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE and blocks until
// ctx is done.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", slog.String("address", addr))
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("simulate_sms",
		mcp.WithDescription("Deliver an inbound SMS to the engine as if the sender had texted it. The reply is sent through the configured gateway and returned."),
		mcp.WithString("from", mcp.Required(), mcp.Description("Sender phone number, e.g. +12125551234")),
		mcp.WithString("body", mcp.Required(), mcp.Description("Message text")),
		mcp.WithOutputSchema[SMSResponse](),
	), mcp.NewStructuredToolHandler(s.handleSimulateSMS))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Return the stored conversation state for a sender."),
		mcp.WithString("phone", mcp.Required(), mcp.Description("Sender phone number")),
		mcp.WithOutputSchema[SessionResponse](),
	), mcp.NewStructuredToolHandler(s.handleGetSession))

	s.mcpServer.AddTool(mcp.NewTool("check_inactivity",
		mcp.WithDescription("Run the idle check for a sender now, sending the reminder if they stopped mid-conversation."),
		mcp.WithString("phone", mcp.Required(), mcp.Description("Sender phone number")),
		mcp.WithOutputSchema[InactivityResponse](),
	), mcp.NewStructuredToolHandler(s.handleCheckInactivity))

	s.mcpServer.AddTool(mcp.NewTool("reset_session",
		mcp.WithDescription("Delete the stored conversation for a sender."),
		mcp.WithString("phone", mcp.Required(), mcp.Description("Sender phone number")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		phone := strings.TrimSpace(request.GetString("phone", ""))
		if phone == "" {
			return mcp.NewToolResultError("phone is required"), nil
		}
		if err := s.engine.Reset(ctx, phone); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("reset failed: %v", err)), nil
		}
		return mcp.NewToolResultText("session removed"), nil
	})

	s.mcpServer.AddTool(mcp.NewTool("describe_flow",
		mcp.WithDescription("Get the donation flow as a Mermaid diagram."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(graph.GenerateMermaid(nil)), nil
	})
}

func (s *Server) handleSimulateSMS(ctx context.Context, request mcp.CallToolRequest, args smsArgs) (SMSResponse, error) {
	from := strings.TrimSpace(args.From)
	body := strings.TrimSpace(args.Body)
	if from == "" || body == "" {
		return SMSResponse{}, errors.New("from and body are required")
	}

	reply, err := s.engine.HandleMessage(ctx, from, body)
	if err != nil {
		s.logger.Error("MCP simulate_sms failed", logging.Phone(from), logging.Err(err))
		return SMSResponse{}, fmt.Errorf("message failed: %w", err)
	}

	sess, err := s.lookup(ctx, from)
	if err != nil {
		return SMSResponse{}, err
	}
	return SMSResponse{Reply: reply, SessionResponse: sess}, nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest, args phoneArgs) (SessionResponse, error) {
	phone := strings.TrimSpace(args.Phone)
	if phone == "" {
		return SessionResponse{}, errors.New("phone is required")
	}
	return s.lookup(ctx, phone)
}

func (s *Server) handleCheckInactivity(ctx context.Context, request mcp.CallToolRequest, args phoneArgs) (InactivityResponse, error) {
	phone := strings.TrimSpace(args.Phone)
	if phone == "" {
		return InactivityResponse{}, errors.New("phone is required")
	}
	nudged, err := s.engine.CheckInactivity(ctx, phone)
	if err != nil {
		return InactivityResponse{}, fmt.Errorf("inactivity check failed: %w", err)
	}
	return InactivityResponse{Nudged: nudged}, nil
}

func (s *Server) lookup(ctx context.Context, phone string) (SessionResponse, error) {
	sess, err := s.engine.Session(ctx, phone)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return SessionResponse{}, nil
	case err != nil:
		return SessionResponse{}, fmt.Errorf("failed to load session: %w", err)
	}
	return SessionResponse{Found: true, Session: sess}, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(flowURI, "Donation Flow",
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      flowURI,
				MIMEType: "text/vnd.mermaid",
				Text:     graph.GenerateMermaid(nil),
			},
		}, nil
	})
}
