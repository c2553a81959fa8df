package main

import "github.com/yapay-ai/aws-budget-guardian/internal/cli"

func main() {
	cli.Execute()
}
