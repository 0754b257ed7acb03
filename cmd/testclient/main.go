// testclient submits a few smoke-test programs to a running judge server and
// prints the terminal records. Useful for checking a local deployment
// end-to-end: docker images present, workers draining, results persisted.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	judge "github.com/mapcrafter2048/judge0-docker-cli/sdk"
)

var (
	serverURL = flag.String("server", "http://localhost:8080", "judge server base URL")
	timeout   = flag.Duration("timeout", 60*time.Second, "overall deadline")
)

func main() {
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := judge.New(*serverURL)

	health, err := client.Health(ctx)
	if err != nil {
		log.Fatalf("health check failed: %v", err)
	}
	fmt.Printf("server ok, workers=%d pending=%d running=%d\n",
		health.Workers, health.Pending, health.Running)

	cases := []judge.SubmitRequest{
		{Language: "python3", SourceCode: `print("Hello, World!")`},
		{Language: "python3", SourceCode: "print(int(input())*2)", Stdin: "21\n"},
		{Language: "javascript", SourceCode: `console.log("Hello from node")`},
	}

	for _, req := range cases {
		sub, err := client.Submit(ctx, req)
		if err != nil {
			log.Fatalf("submit %s failed: %v", req.Language, err)
		}
		fmt.Printf("submitted %s as %s\n", req.Language, sub.JobID)

		job, err := client.Wait(ctx, sub.JobID)
		if err != nil {
			log.Fatalf("wait for %s failed: %v", sub.JobID, err)
		}
		fmt.Printf("  status=%s", job.Status)
		if job.ExitCode != nil {
			fmt.Printf(" exit=%d", *job.ExitCode)
		}
		if job.ExecutionTimeMs != nil {
			fmt.Printf(" time=%dms", *job.ExecutionTimeMs)
		}
		fmt.Println()
		if job.Stdout != nil && *job.Stdout != "" {
			fmt.Printf("  stdout: %q\n", *job.Stdout)
		}
		if job.ErrorMessage != nil {
			fmt.Printf("  error: %s\n", *job.ErrorMessage)
		}
	}
}
