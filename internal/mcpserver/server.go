// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes timelog tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/timelog/internal/apperr"
	"github.com/starford/timelog/internal/models"
	"github.com/starford/timelog/internal/stats"
	"github.com/starford/timelog/internal/timer"
)

const rulesURI = "timelog://recording-rules"

// Service is the part of the record service the tools drive.
type Service interface {
	Records() []models.Record
	Get(ctx context.Context, id int64) (models.Record, error)
	Add(ctx context.Context, title, description string) (models.Record, error)
	Update(ctx context.Context, rec models.Record) (models.Record, error)
	Delete(ctx context.Context, id int64) error
	IncrementAndTouch(ctx context.Context, id, ts int64) (models.Record, error)
	RecordDuration(ctx context.Context, id, seconds int64, source string) (models.Record, error)
	StartTimer(ctx context.Context, id int64) (timer.Snapshot, error)
	PauseTimer(id int64) (timer.Snapshot, error)
	ResumeTimer(id int64) (timer.Snapshot, error)
	StopTimer(ctx context.Context, id int64) (models.Record, error)
	TimerStatus(id int64) (timer.Snapshot, error)
	Now() time.Time
	Summary() stats.Summary
	Heatmap(weeks int) stats.Grid
	Month(year int, month time.Month) stats.MonthGrid
	Day(year int, month time.Month, day int) []models.Record
}

// Server wraps the MCP server with timelog tools.
type Server struct {
	mcp          *server.MCPServer
	svc          Service
	heatmapWeeks int
}

// New creates a new MCP server with all timelog tools registered.
func New(svc Service, version string, heatmapWeeks int) *Server {
	s := &Server{svc: svc, heatmapWeeks: heatmapWeeks}

	s.mcp = server.NewMCPServer(
		"timelog",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_records",
		mcp.WithDescription("List records, most recently updated first. "+
			"With a date, only records timestamped on that day."),
		mcp.WithString("date", mcp.Description("Optional day as YYYY-MM-DD")),
	), s.listRecords)

	s.mcp.AddTool(mcp.NewTool("get_record",
		mcp.WithDescription("Read one record by id."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Record id")),
	), s.getRecord)

	s.mcp.AddTool(mcp.NewTool("add_record",
		mcp.WithDescription("Create a new, not yet timed record."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Title, 1-200 characters")),
		mcp.WithString("description", mcp.Description("Optional free text")),
	), s.addRecord)

	s.mcp.AddTool(mcp.NewTool("rename_record",
		mcp.WithDescription("Change the title and description of a record."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Record id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("New title")),
		mcp.WithString("description", mcp.Description("New description; omit to keep the current one")),
	), s.renameRecord)

	s.mcp.AddTool(mcp.NewTool("record_duration",
		mcp.WithDescription("Record a finished session against a record. "+
			"Read the recording rules via get_recording_rules or the "+rulesURI+" resource."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Record id")),
		mcp.WithNumber("seconds", mcp.Description("Session length in seconds")),
		mcp.WithString("hms", mcp.Description("Session length as HH:MM:SS, instead of seconds")),
		mcp.WithString("source", mcp.Description("manual (default), timer or interrupted")),
	), s.recordDuration)

	s.mcp.AddTool(mcp.NewTool("increment_record",
		mcp.WithDescription("Add one minute to a record and move its timestamp to now."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Record id")),
	), s.incrementRecord)

	s.mcp.AddTool(mcp.NewTool("delete_record",
		mcp.WithDescription("Delete a record."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Record id")),
	), s.deleteRecord)

	s.mcp.AddTool(mcp.NewTool("timer",
		mcp.WithDescription("Drive the stopwatch of a record. stop records the session."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Record id")),
		mcp.WithString("action", mcp.Required(),
			mcp.Enum("start", "pause", "resume", "stop", "status"),
			mcp.Description("start, pause, resume, stop or status")),
	), s.timerAction)

	s.mcp.AddTool(mcp.NewTool("get_stats",
		mcp.WithDescription("Counts for today, this week, this month, in total, and total minutes."),
	), s.getStats)

	s.mcp.AddTool(mcp.NewTool("get_heatmap",
		mcp.WithDescription("Per-day counts and intensity tiers for the last weeks, column per week."),
		mcp.WithNumber("weeks", mcp.Description("Number of weeks, default from configuration")),
	), s.getHeatmap)

	s.mcp.AddTool(mcp.NewTool("get_month",
		mcp.WithDescription("Month calendar with per-day counts."),
		mcp.WithNumber("year", mcp.Description("Year, default current")),
		mcp.WithNumber("month", mcp.Description("Month 1-12, default current")),
	), s.getMonth)

	s.mcp.AddTool(mcp.NewTool("get_recording_rules",
		mcp.WithDescription("Returns how durations become counts and how statistics are bucketed."),
	), s.getRecordingRules)

	s.mcp.AddResource(
		mcp.NewResource(rulesURI, "Recording Rules",
			mcp.WithResourceDescription("How timelog records sessions and buckets statistics."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readRecordingRulesResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func errorResult(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found: " + err.Error())
	case errors.Is(err, apperr.ErrStoreFailure):
		return mcp.NewToolResultError("store unavailable: " + err.Error())
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func requireID(req mcp.CallToolRequest) (int64, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: id must be positive", apperr.ErrInvalid)
	}
	return int64(id), nil
}

func (s *Server) listRecords(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date := req.GetString("date", "")
	if date == "" {
		return jsonResult(s.svc.Records())
	}
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid date %q, want YYYY-MM-DD", date)), nil
	}
	return jsonResult(s.svc.Day(d.Year(), d.Month(), d.Day()))
}

func (s *Server) getRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return errorResult(err), nil
	}
	rec, err := s.svc.Get(ctx, id)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(rec)
}

func (s *Server) addRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.Add(ctx, title, req.GetString("description", ""))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(rec)
}

func (s *Server) renameRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return errorResult(err), nil
	}
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rec, err := s.svc.Get(ctx, id)
	if err != nil {
		return errorResult(err), nil
	}
	rec.Title = title
	rec.Description = req.GetString("description", rec.Description)
	rec, err = s.svc.Update(ctx, rec)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(rec)
}

func (s *Server) recordDuration(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return errorResult(err), nil
	}
	var secs int64
	if hms := req.GetString("hms", ""); hms != "" {
		secs, err = timer.ParseHMS(hms)
		if err != nil {
			return errorResult(err), nil
		}
	} else {
		n, err := req.RequireInt("seconds")
		if err != nil {
			return mcp.NewToolResultError("seconds or hms is required"), nil
		}
		if n < 0 {
			return mcp.NewToolResultError("seconds must not be negative"), nil
		}
		secs = int64(n)
	}
	rec, err := s.svc.RecordDuration(ctx, id, secs, req.GetString("source", models.SourceManual))
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(rec)
}

func (s *Server) incrementRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return errorResult(err), nil
	}
	rec, err := s.svc.IncrementAndTouch(ctx, id, 0)
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(rec)
}

func (s *Server) deleteRecord(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return errorResult(err), nil
	}
	if err := s.svc.Delete(ctx, id); err != nil {
		return errorResult(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %d", id)), nil
}

func (s *Server) timerAction(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return errorResult(err), nil
	}
	action, err := req.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var snap timer.Snapshot
	switch action {
	case "start":
		snap, err = s.svc.StartTimer(ctx, id)
	case "pause":
		snap, err = s.svc.PauseTimer(id)
	case "resume":
		snap, err = s.svc.ResumeTimer(id)
	case "status":
		snap, err = s.svc.TimerStatus(id)
	case "stop":
		rec, err := s.svc.StopTimer(ctx, id)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(rec)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown action %q", action)), nil
	}
	if err != nil {
		return errorResult(err), nil
	}
	return jsonResult(snap)
}

func (s *Server) getStats(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.svc.Summary())
}

func (s *Server) getHeatmap(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	weeks := req.GetInt("weeks", s.heatmapWeeks)
	if weeks < 1 || weeks > 104 {
		return mcp.NewToolResultError("weeks must be 1..104"), nil
	}
	return jsonResult(s.svc.Heatmap(weeks))
}

func (s *Server) getMonth(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	now := s.svc.Now()
	year := req.GetInt("year", now.Year())
	month := req.GetInt("month", int(now.Month()))
	if month < 1 || month > 12 {
		return mcp.NewToolResultError("month must be 1..12"), nil
	}
	return jsonResult(s.svc.Month(year, time.Month(month)))
}

func (s *Server) getRecordingRules(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(RecordingRules), nil
}

func (s *Server) readRecordingRulesResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      rulesURI,
			MIMEType: "text/markdown",
			Text:     RecordingRules,
		},
	}, nil
}
