// Package model defines core data structures for pcapview.
package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the lifecycle state of an analysis record.
type Status string

const (
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// Group classifies a host as inside or outside the monitored network.
type Group string

const (
	GroupInternal Group = "internal"
	GroupExternal Group = "external"
)

// AnalysisRecord is one stored outcome of analyzing a single capture file.
type AnalysisRecord struct {
	ID           int64           `json:"id"`
	Filename     string          `json:"filename"`
	Timestamp    Timestamp       `json:"timestamp"`
	Status       Status          `json:"status"`
	ErrorMessage string          `json:"error_message,omitempty"`
	AnalysisData *AnalysisResult `json:"analysis_data,omitempty"`
}

// Validate reports whether the record honours the status invariants:
// error_message is present iff the analysis failed, analysis_data iff it succeeded.
func (r AnalysisRecord) Validate() error {
	if (r.ErrorMessage != "") != (r.Status == StatusFailure) {
		return fmt.Errorf("record %d: error_message presence does not match status %q", r.ID, r.Status)
	}
	if (r.AnalysisData != nil) != (r.Status == StatusSuccess) {
		return fmt.Errorf("record %d: analysis_data presence does not match status %q", r.ID, r.Status)
	}
	return nil
}

// HasAnalysis reports whether the record carries renderable analysis data.
func (r AnalysisRecord) HasAnalysis() bool {
	return r.Status == StatusSuccess && r.AnalysisData != nil
}

// AnalysisResult is the derived graph and alert set for one capture.
type AnalysisResult struct {
	Nodes  []GraphNode `json:"nodes"`
	Edges  []GraphEdge `json:"edges"`
	Alerts []Alert     `json:"alerts"`
}

// GraphNode is a host observed in the capture.
// Country, ISP, UsageType and AbuseScore are only populated for external hosts.
type GraphNode struct {
	ID         string   `json:"id"`
	Label      string   `json:"label"`
	Group      Group    `json:"group"`
	Country    string   `json:"country,omitempty"`
	ISP        string   `json:"isp,omitempty"`
	UsageType  string   `json:"usageType,omitempty"`
	AbuseScore *float64 `json:"abuseScore,omitempty"`
}

// External reports whether the node is outside the monitored network.
func (n GraphNode) External() bool {
	return n.Group == GroupExternal
}

// GraphEdge is an observed interaction between two hosts.
type GraphEdge struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Value  *float64 `json:"value,omitempty"`
	Weight *float64 `json:"weight,omitempty"`
	Title  string   `json:"title,omitempty"`
}

// Magnitude returns the edge value, falling back to weight, then 1.
func (e GraphEdge) Magnitude() float64 {
	switch {
	case e.Value != nil:
		return *e.Value
	case e.Weight != nil:
		return *e.Weight
	default:
		return 1
	}
}

// Alert is a single flagged security-relevant event.
type Alert struct {
	Timestamp Timestamp `json:"timestamp"`
	SrcIP     string    `json:"src_ip"`
	SrcPort   int       `json:"src_port,omitempty"`
	DestIP    string    `json:"dest_ip"`
	DestPort  int       `json:"dest_port,omitempty"`
	Proto     string    `json:"proto"`
	Severity  Severity  `json:"severity"`
	Signature string    `json:"signature"`
	Category  string    `json:"category,omitempty"`
}

// Source returns the "ip:port" source endpoint.
func (a Alert) Source() string {
	return endpoint(a.SrcIP, a.SrcPort)
}

// Destination returns the "ip:port" destination endpoint.
func (a Alert) Destination() string {
	return endpoint(a.DestIP, a.DestPort)
}

func endpoint(ip string, port int) string {
	if port == 0 {
		return ip
	}
	if strings.Contains(ip, ":") {
		return "[" + ip + "]:" + strconv.Itoa(port)
	}
	return ip + ":" + strconv.Itoa(port)
}

// Severity is the producer-defined alert severity label.
type Severity string

// Rank orders the known labels low < medium < high < critical.
// Unknown labels rank 0.
func (s Severity) Rank() int {
	switch strings.ToLower(string(s)) {
	case "low":
		return 1
	case "medium":
		return 2
	case "high":
		return 3
	case "critical":
		return 4
	default:
		return 0
	}
}

// UnmarshalJSON accepts both string labels and numeric severities.
func (s *Severity) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*s = ""
		return nil
	}
	var label string
	if err := json.Unmarshal(data, &label); err == nil {
		*s = Severity(label)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("severity: %w", err)
	}
	*s = Severity(num.String())
	return nil
}

// HistoryPage is one page of history as delivered by the analysis service.
type HistoryPage struct {
	Records    []AnalysisRecord `json:"records"`
	TotalCount int              `json:"total_count"`
}

// UploadResponse is the analysis service reply to a successful upload.
type UploadResponse struct {
	Filename string         `json:"filename"`
	Info     string         `json:"info,omitempty"`
	Data     AnalysisResult `json:"data"`
}

// JournalEntry is a locally recorded upload attempt.
type JournalEntry struct {
	ID          int64     `json:"id"`
	Filename    string    `json:"filename"`
	SizeBytes   int64     `json:"size_bytes"`
	SubmittedAt time.Time `json:"submitted_at"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
	Outcome     string    `json:"outcome"`
	Message     string    `json:"message"`
	NodeCount   int       `json:"node_count"`
	AlertCount  int       `json:"alert_count"`
}
