// Command fastuuid generates, inspects and converts UUIDs.
//
//	fastuuid gen --version 7 -n 1000 --format hex
//	fastuuid gen --version 5 --namespace dns --name python.org
//	fastuuid gen --version 1 --node-source zk --zk-servers zk1:2181,zk2:2181
//	fastuuid inspect 886313e1-3b8a-5372-9b90-0c9aee199e5d
//	fastuuid convert --from int --to bytes-le 24197857161011715162171839636988778104
//
// Every flag can also be set through a FASTUUID_* environment variable.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	logrus.SetOutput(os.Stderr)
	if err := run(ctx, os.Args[1:], os.Stdout, logrus.StandardLogger()); err != nil {
		logrus.Fatalf("Unable to complete command: %s", err)
	}
}
