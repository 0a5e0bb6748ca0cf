package view

import (
	"errors"
	"path/filepath"

	"github.com/user/pcapview/internal/client"
	"github.com/user/pcapview/internal/model"
	"github.com/user/pcapview/internal/util"
)

// Upload messages shown to the operator.
const (
	MsgSelectFile = "Please select a file first."
	MsgUploading  = "Uploading and analyzing... This may take a moment."
)

// UploadState is one of Idle, Uploading, Succeeded or Failed.
type UploadState interface {
	uploadState()
}

// Idle waits for a file and a submit. Message holds input validation text.
type Idle struct {
	File    string
	Message string
}

// Uploading has one request in flight.
type Uploading struct {
	File string
}

// Succeeded holds the analysis returned by the service.
type Succeeded struct {
	File     string
	Filename string
	Result   model.AnalysisResult
}

// Failed holds the operator-facing failure text.
type Failed struct {
	File    string
	Message string
}

func (Idle) uploadState()      {}
func (Uploading) uploadState() {}
func (Succeeded) uploadState() {}
func (Failed) uploadState()    {}

// UploadView runs the single analyze operation. Only a fresh file selection
// returns it to Idle; a failure stays visible until then.
type UploadView struct {
	state UploadState
	gen   Generation
}

// NewUploadView starts Idle with no file.
func NewUploadView() *UploadView {
	return &UploadView{state: Idle{}, gen: NewGeneration("upload")}
}

// State returns the current state.
func (v *UploadView) State() UploadState {
	return v.state
}

// Busy reports whether the file and submit controls are disabled.
func (v *UploadView) Busy() bool {
	_, ok := v.state.(Uploading)
	return ok
}

// SelectFile chooses file and clears any previous message and result.
// It is rejected while an upload is in flight.
func (v *UploadView) SelectFile(file string) bool {
	if v.Busy() {
		return false
	}
	v.state = Idle{File: file}
	return true
}

// Submit starts the upload of the selected file. With no file selected it
// sets MsgSelectFile and issues nothing. It only starts from Idle.
func (v *UploadView) Submit() (Ticket, string, bool) {
	idle, ok := v.state.(Idle)
	if !ok {
		return Ticket{}, "", false
	}
	if idle.File == "" {
		v.state = Idle{Message: MsgSelectFile}
		return Ticket{}, "", false
	}
	v.state = Uploading{File: idle.File}
	return v.gen.Next(), idle.File, true
}

// Complete commits the outcome of the upload issued with t. Responses for
// superseded tickets are discarded and Complete returns false.
func (v *UploadView) Complete(t Ticket, resp *model.UploadResponse, err error) bool {
	if !v.gen.Accept(t) {
		return false
	}
	up, ok := v.state.(Uploading)
	if !ok {
		return false
	}

	if err == nil && resp == nil {
		err = errors.New("empty response from analysis service")
	}
	if err != nil {
		util.Warn("Upload of %s failed: %v", up.File, err)
		v.state = Failed{File: up.File, Message: "Error: " + client.UserMessage(err)}
		return true
	}

	name := resp.Filename
	if name == "" {
		name = filepath.Base(up.File)
	}
	util.Info("Analysis complete for %s: %d nodes, %d alerts", name, len(resp.Data.Nodes), len(resp.Data.Alerts))
	v.state = Succeeded{File: up.File, Filename: name, Result: resp.Data}
	return true
}

// Reset invalidates any in-flight upload and returns to an empty Idle.
// Called when the view is torn down.
func (v *UploadView) Reset() {
	v.gen.Invalidate()
	v.state = Idle{}
}

// File returns the selected file, if any.
func (v *UploadView) File() string {
	switch s := v.state.(type) {
	case Idle:
		return s.File
	case Uploading:
		return s.File
	case Succeeded:
		return s.File
	case Failed:
		return s.File
	}
	return ""
}

// Message returns the status line for the current state.
func (v *UploadView) Message() string {
	switch s := v.state.(type) {
	case Idle:
		return s.Message
	case Uploading:
		return MsgUploading
	case Succeeded:
		return "Analysis complete for " + s.Filename + "."
	case Failed:
		return s.Message
	}
	return ""
}

// Result returns the analysis when the upload succeeded.
func (v *UploadView) Result() (model.AnalysisResult, bool) {
	s, ok := v.state.(Succeeded)
	if !ok {
		return model.AnalysisResult{}, false
	}
	return s.Result, true
}
