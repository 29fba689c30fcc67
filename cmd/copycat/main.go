package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"copycat-api/pkg/actionplan"
	"copycat-api/pkg/confkit"
	llmpkg "copycat-api/pkg/llm"
	plannerpkg "copycat-api/pkg/planner"
	"copycat-api/pkg/session"
)

const (
	cliSessionID  = "cli"
	cliSessionTTL = time.Minute
)

func fatalf(format string, args ...interface{}) {
	logx.Errorf(format, args...)
	os.Exit(1)
}

func main() {
	var (
		llmPath     = flag.String("llm-config", "etc/llm.yaml", "path to llm configuration")
		plannerPath = flag.String("planner-config", "etc/planner.yaml", "path to planner configuration")
		pagePath    = flag.String("page", "", "page snapshot JSON to plan against")
		respPath    = flag.String("response", "", "raw model reply to parse instead of calling the model")
		listModels  = flag.Bool("models", false, "list the models the configured key can use")
		asJSON      = flag.Bool("json", false, "print the full result as JSON")
	)
	flag.Parse()
	logx.MustSetup(logx.LogConf{})
	logx.DisableStat()

	confkit.LoadDotenvOnce()

	plannerCfg, err := plannerpkg.LoadConfig(*plannerPath)
	if err != nil {
		fatalf("load planner config: %v", err)
	}

	if *respPath != "" {
		raw, err := os.ReadFile(*respPath)
		if err != nil {
			fatalf("read response: %v", err)
		}
		plan, method := actionplan.ExtractWithMethod(string(raw))
		kept, dropped := actionplan.Filter(plan, plannerCfg.Policy())
		emit(*asJSON, map[string]any{"method": method, "actions": kept.Actions, "dropped": dropped}, kept)
		return
	}

	llmCfg, err := llmpkg.LoadConfig(*llmPath)
	if err != nil {
		fatalf("load llm config: %v", err)
	}
	client, err := llmpkg.NewClient(llmCfg)
	if err != nil {
		fatalf("initialise llm client: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()

	ctx := context.Background()
	if *listModels {
		ids, err := client.ListModels(ctx)
		if err != nil {
			fatalf("list models: %v", err)
		}
		fmt.Println(strings.Join(ids, "\n"))
		return
	}

	if *pagePath == "" {
		fatalf("one of -page, -response or -models is required")
	}
	page, err := readPage(*pagePath)
	if err != nil {
		fatalf("read page: %v", err)
	}

	store, err := session.NewMemoryStore(cliSessionTTL)
	if err != nil {
		fatalf("session store: %v", err)
	}
	p, err := plannerpkg.NewPlanner(plannerCfg, client, session.NewManager(store))
	if err != nil {
		fatalf("initialise planner: %v", err)
	}

	res, err := p.Plan(ctx, cliSessionID, page)
	if res != nil && err != nil {
		logx.Errorf("run %s: %v", res.RunID, err)
		emit(*asJSON, res, &actionplan.Plan{})
		os.Exit(2)
	}
	if err != nil {
		fatalf("plan: %v", err)
	}
	emit(*asJSON, res, res.Kept)
}

func readPage(path string) (*plannerpkg.PageSnapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var page plannerpkg.PageSnapshot
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return &page, nil
}

func emit(asJSON bool, full any, plan *actionplan.Plan) {
	if !asJSON {
		fmt.Println(actionplan.Format(plan))
		return
	}
	out, err := json.MarshalIndent(full, "", "  ")
	if err != nil {
		fatalf("encode result: %v", err)
	}
	fmt.Println(string(out))
}
