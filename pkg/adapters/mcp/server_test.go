package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/donorline"
	"github.com/aretw0/donorline/pkg/adapters/memory"
	"github.com/aretw0/donorline/pkg/domain"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sender = "+12125551234"

func newTestServer(t *testing.T) (*Server, *memory.Gateway) {
	t.Helper()
	gw := memory.NewGateway()
	eng, err := donorline.New(
		donorline.WithGateway(gw),
		donorline.WithLedger(memory.NewLedger()),
	)
	require.NoError(t, err)
	return NewServer(eng, nil), gw
}

func TestSimulateSMS(t *testing.T) {
	srv, gw := newTestServer(t)
	ctx := context.Background()

	resp, err := srv.handleSimulateSMS(ctx, mcp.CallToolRequest{}, smsArgs{From: sender, Body: "Hi"})
	require.NoError(t, err)

	assert.Equal(t, domain.MsgGreeting, resp.Reply)
	assert.Equal(t, domain.MsgGreeting, gw.Last().Text)
	require.True(t, resp.Found)
	assert.Equal(t, domain.StepCongregation, resp.Session.Step)

	resp, err = srv.handleSimulateSMS(ctx, mcp.CallToolRequest{}, smsArgs{From: sender, Body: "Bais Shalom"})
	require.NoError(t, err)
	assert.Equal(t, domain.StepPersonName, resp.Session.Step)
	assert.Equal(t, "Bais Shalom", resp.Session.Get(domain.FieldCongregation))
}

func TestSimulateSMS_RequiresFields(t *testing.T) {
	srv, gw := newTestServer(t)

	_, err := srv.handleSimulateSMS(context.Background(), mcp.CallToolRequest{}, smsArgs{From: sender, Body: "  "})
	assert.Error(t, err)
	assert.Empty(t, gw.Sent())
}

func TestGetSession(t *testing.T) {
	srv, _ := newTestServer(t)
	ctx := context.Background()

	resp, err := srv.handleGetSession(ctx, mcp.CallToolRequest{}, phoneArgs{Phone: sender})
	require.NoError(t, err)
	assert.False(t, resp.Found)

	_, err = srv.handleSimulateSMS(ctx, mcp.CallToolRequest{}, smsArgs{From: sender, Body: "Hello"})
	require.NoError(t, err)

	resp, err = srv.handleGetSession(ctx, mcp.CallToolRequest{}, phoneArgs{Phone: sender})
	require.NoError(t, err)
	assert.True(t, resp.Found)

	_, err = srv.handleGetSession(ctx, mcp.CallToolRequest{}, phoneArgs{})
	assert.Error(t, err)
}

func TestCheckInactivity_NoSession(t *testing.T) {
	srv, gw := newTestServer(t)

	resp, err := srv.handleCheckInactivity(context.Background(), mcp.CallToolRequest{}, phoneArgs{Phone: sender})
	require.NoError(t, err)
	assert.False(t, resp.Nudged)
	assert.Empty(t, gw.Sent())
}
