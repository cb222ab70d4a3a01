package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AuditEventType names a structured audit record.
type AuditEventType string

const (
	// Dashboard events
	AuditActionOpened    AuditEventType = "action_opened"
	AuditActionConfirmed AuditEventType = "action_confirmed"
	AuditActionRemoved   AuditEventType = "action_removed"
	AuditProgressUpdated AuditEventType = "progress_updated"
	AuditBannerAllClear  AuditEventType = "banner_all_clear"

	// Wizard events
	AuditWizardTransition AuditEventType = "wizard_transition"
	AuditProgressSnapshot AuditEventType = "progress_snapshot"
	AuditPhaseSkipped     AuditEventType = "phase_skipped"
	AuditFaultRecovered   AuditEventType = "fault_recovered"
)

// AuditEvent is one JSON line in the audit log.
type AuditEvent struct {
	Timestamp  int64                  `json:"ts"`
	EventType  AuditEventType         `json:"event"`
	Screen     string                 `json:"screen,omitempty"`
	SessionID  string                 `json:"session,omitempty"`
	Target     string                 `json:"target,omitempty"`
	Step       int                    `json:"step,omitempty"`
	Success    bool                   `json:"success"`
	DurationMs int64                  `json:"dur_ms,omitempty"`
	Message    string                 `json:"msg,omitempty"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// MarshalLogObject lets zap encode the event without reflection.
func (e AuditEvent) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddInt64("ts", e.Timestamp)
	enc.AddString("event", string(e.EventType))
	if e.Screen != "" {
		enc.AddString("screen", e.Screen)
	}
	if e.SessionID != "" {
		enc.AddString("session", e.SessionID)
	}
	if e.Target != "" {
		enc.AddString("target", e.Target)
	}
	if e.Step != 0 {
		enc.AddInt("step", e.Step)
	}
	enc.AddBool("success", e.Success)
	if e.DurationMs != 0 {
		enc.AddInt64("dur_ms", e.DurationMs)
	}
	if len(e.Fields) > 0 {
		return enc.AddReflected("fields", e.Fields)
	}
	return nil
}

var (
	auditFile   *os.File
	auditZap    *zap.Logger
	auditMu     sync.Mutex
	auditLogger *AuditLogger
)

// AuditLogger writes structured audit events, optionally scoped to a session.
type AuditLogger struct {
	sessionID string
	screen    string
}

// InitAudit opens the audit log. No-op outside debug mode.
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditFile != nil {
		return nil
	}

	date := time.Now().Format("2006-01-02")
	auditPath := filepath.Join(LogsDir(), fmt.Sprintf("%s_audit.jsonl", date))

	file, err := os.OpenFile(auditPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	auditFile = file

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.LevelKey = ""
	encCfg.CallerKey = ""
	auditZap = zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), zapcore.InfoLevel))
	return nil
}

// CloseAudit flushes and closes the audit log file
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditZap != nil {
		_ = auditZap.Sync()
		auditZap = nil
	}
	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit returns the global audit logger
func Audit() *AuditLogger {
	if auditLogger == nil {
		auditLogger = &AuditLogger{}
	}
	return auditLogger
}

// AuditWithSession creates an audit logger scoped to a screen session
func AuditWithSession(screen, sessionID string) *AuditLogger {
	return &AuditLogger{screen: screen, sessionID: sessionID}
}

// Log writes an audit event
func (a *AuditLogger) Log(event AuditEvent) {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditZap == nil {
		return
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.SessionID == "" {
		event.SessionID = a.sessionID
	}
	if event.Screen == "" {
		event.Screen = a.screen
	}
	auditZap.Info(event.Message, zap.Inline(event))
}
