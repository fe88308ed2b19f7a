package tool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileToolSource is a thin wrapper over AggregateSource exposing a fixed
// read_file/write_file/list_directory tool set, rooted at WorkingFolder.
// Path resolution normalizes "." and ".." and rejects any result outside
// the canonical working-folder prefix (spec §6, "Environment").
type FileToolSource struct {
	*AggregateSource
	WorkingFolder string
}

// NewFileToolSource constructs a FileToolSource rooted at workingFolder.
func NewFileToolSource(workingFolder string) (*FileToolSource, error) {
	abs, err := filepath.Abs(workingFolder)
	if err != nil {
		return nil, err
	}
	f := &FileToolSource{AggregateSource: NewAggregateSource(), WorkingFolder: abs}
	mustRegister(f.AggregateSource, Spec{Name: "read_file", Description: "Read a file's contents"}, f.readFile)
	mustRegister(f.AggregateSource, Spec{Name: "write_file", Description: "Write a file's contents"}, f.writeFile)
	mustRegister(f.AggregateSource, Spec{Name: "list_directory", Description: "List a directory's entries"}, f.listDirectory)
	return f, nil
}

func mustRegister(a *AggregateSource, spec Spec, h Handler) {
	if err := a.RegisterTool(spec, h); err != nil {
		panic(err)
	}
}

func (f *FileToolSource) resolve(rel string) (string, error) {
	joined := filepath.Join(f.WorkingFolder, rel)
	cleaned := filepath.Clean(joined)
	if cleaned != f.WorkingFolder && !strings.HasPrefix(cleaned, f.WorkingFolder+string(filepath.Separator)) {
		return "", fmt.Errorf("tool: path %q escapes working folder", rel)
	}
	return cleaned, nil
}

type filePathArgs struct {
	Path string `json:"path"`
}

func (f *FileToolSource) readFile(_ context.Context, args json.RawMessage, _ CallContext) (CallContent, error) {
	var a filePathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return CallContent{}, err
	}
	path, err := f.resolve(a.Path)
	if err != nil {
		return CallContent{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return CallContent{IsError: true, Content: err.Error()}, nil
	}
	return CallContent{Content: string(data)}, nil
}

type writeFileArgs struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

func (f *FileToolSource) writeFile(_ context.Context, args json.RawMessage, _ CallContext) (CallContent, error) {
	var a writeFileArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return CallContent{}, err
	}
	path, err := f.resolve(a.Path)
	if err != nil {
		return CallContent{}, err
	}
	if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
		return CallContent{IsError: true, Content: err.Error()}, nil
	}
	return CallContent{Content: "ok"}, nil
}

func (f *FileToolSource) listDirectory(_ context.Context, args json.RawMessage, _ CallContext) (CallContent, error) {
	var a filePathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return CallContent{}, err
	}
	path, err := f.resolve(a.Path)
	if err != nil {
		return CallContent{}, err
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return CallContent{IsError: true, Content: err.Error()}, nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	b, err := json.Marshal(names)
	if err != nil {
		return CallContent{}, err
	}
	return CallContent{Content: string(b), Structured: b}, nil
}

// BashToolsSource is a thin wrapper over AggregateSource exposing a single
// "run_command" tool. It deliberately has no sandboxing; the spec treats
// enforcing a safety boundary as delegated to approval policy (§1
// Non-goals), not to the tool source.
type BashToolsSource struct {
	*AggregateSource
	Run func(ctx context.Context, command string) (stdout string, err error)
}

// NewBashToolsSource constructs a BashToolsSource around the given runner
// function (injected so tests never need to actually exec a shell).
func NewBashToolsSource(run func(ctx context.Context, command string) (string, error)) *BashToolsSource {
	b := &BashToolsSource{AggregateSource: NewAggregateSource(), Run: run}
	mustRegister(b.AggregateSource, Spec{Name: "run_command", Description: "Run a shell command"}, b.runCommand)
	return b
}

type commandArgs struct {
	Command string `json:"command"`
}

func (b *BashToolsSource) runCommand(ctx context.Context, args json.RawMessage, _ CallContext) (CallContent, error) {
	var a commandArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return CallContent{}, err
	}
	if b.Run == nil {
		return CallContent{}, errors.New("tool: bash source has no runner configured")
	}
	out, err := b.Run(ctx, a.Command)
	if err != nil {
		return CallContent{IsError: true, Content: err.Error()}, nil
	}
	return CallContent{Content: out}, nil
}

// RecentMessages is a minimal message-tail view. Nothing in this repository
// implements it; the short-term-memory tool reads CallContext.MessageTail
// instead.
type RecentMessages interface {
	Tail(n int) []string
}

// ShortTermMemoryToolSource is a thin wrapper over AggregateSource exposing
// a single "get_recent_messages" tool, answered using the per-step
// CallContext.MessageTail rather than any independent storage (spec §4.7:
// "uses the per-step ToolCallContext to answer get_recent_messages").
type ShortTermMemoryToolSource struct {
	*AggregateSource
}

// NewShortTermMemoryToolSource constructs the wrapper.
func NewShortTermMemoryToolSource() *ShortTermMemoryToolSource {
	s := &ShortTermMemoryToolSource{AggregateSource: NewAggregateSource()}
	mustRegister(s.AggregateSource, Spec{Name: "get_recent_messages", Description: "Return the recent conversation tail"}, s.getRecent)
	return s
}

func (s *ShortTermMemoryToolSource) getRecent(_ context.Context, _ json.RawMessage, cc CallContext) (CallContent, error) {
	b, err := json.Marshal(cc.MessageTail)
	if err != nil {
		return CallContent{}, err
	}
	return CallContent{Content: string(b), Structured: b}, nil
}
