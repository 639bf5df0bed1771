// procshim runs programs and reads their output line by line, from the
// shell or as an MCP tool server.
package main

import (
	"os"

	"github.com/wagiedev/procshim-go/internal/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
