// Command graphdemo wires a compiled ReAct plan to the runner façade
// (spec §4.10) against an in-memory checkpoint store and session log, and
// drives one or two turns from the command line. It stands in for the
// teacher's cmd/demo (which wired a stub planner straight to
// runtime.Runtime); there is no concrete LLM provider here (spec.md §1
// Non-goals: "does not assume any particular LLM provider"), so the model
// is a tiny scripted stand-in that calls get_time once before answering.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/arwynlabs/graphrt/checkpoint/inmem"
	"github.com/arwynlabs/graphrt/react"
	"github.com/arwynlabs/graphrt/runner"
	sessioninmem "github.com/arwynlabs/graphrt/session/inmem"
	"github.com/arwynlabs/graphrt/state"
	"github.com/arwynlabs/graphrt/stream"
	"github.com/arwynlabs/graphrt/tool"
)

// echoModel is a placeholder react.Model: its first call always reaches
// for get_time, its second call folds the tool result into a reply. Real
// deployments supply their own react.Model adapter instead.
type echoModel struct{ turn int }

func (m *echoModel) Generate(_ context.Context, req react.GenerateRequest) (react.GenerateReply, error) {
	m.turn++
	if m.turn == 1 {
		return react.GenerateReply{ToolCalls: []state.ToolCall{{ID: "1", Name: "get_time"}}}, nil
	}
	last := req.Messages[len(req.Messages)-1].Content
	return react.GenerateReply{Content: fmt.Sprintf("it is currently %s", last)}, nil
}

func buildPlan() (*react.Config, *tool.AggregateSource, error) {
	tools := tool.NewAggregateSource()
	err := tools.RegisterTool(tool.Spec{Name: "get_time", Description: "returns the current time"},
		func(context.Context, json.RawMessage, tool.CallContext) (tool.CallContent, error) {
			return tool.CallContent{Content: "2026-07-30 00:00:00 UTC"}, nil
		})
	if err != nil {
		return nil, nil, err
	}
	cfg := react.Config{
		Think: react.ThinkConfig{Model: &echoModel{}, Tools: tools},
		Act:   react.ActConfig{Tools: tools},
	}
	return &cfg, tools, nil
}

func main() {
	threadID := flag.String("thread", "demo-thread", "thread id to checkpoint under")
	withStream := flag.Bool("stream", false, "subscribe to task events while the run executes")
	flag.Parse()

	cfg, _, err := buildPlan()
	if err != nil {
		fmt.Fprintln(os.Stderr, "build plan:", err)
		os.Exit(1)
	}
	plan, err := react.NewGraph(*cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "compile plan:", err)
		os.Exit(1)
	}

	r, err := runner.New(runner.Config{
		Plan:         plan,
		Checkpointer: inmem.New[state.ReActState](),
		Sessions:     sessioninmem.New(),
		SystemPrompt: "you are a helpful assistant",
		ThreadID:     *threadID,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, "new runner:", err)
		os.Exit(1)
	}

	ctx := context.Background()
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("graphdemo: type a message and press enter (Ctrl-D to exit)")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		message := scanner.Text()
		if message == "" {
			continue
		}

		var final state.ReActState
		if *withStream {
			final, err = r.Stream(ctx, message, stream.NewModes(stream.ModeTasks), func(sub stream.Subscription) {
				go func() {
					for env := range sub.C() {
						fmt.Printf("[event] node=%s id=%d\n", env.NodeID, env.EventID)
					}
				}()
			})
		} else {
			final, err = r.Invoke(ctx, message)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "run:", err)
			continue
		}
		fmt.Println(final.Messages[len(final.Messages)-1].Content)
	}
}
