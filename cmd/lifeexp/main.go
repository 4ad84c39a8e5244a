// Command lifeexp serves and renders the life expectancy dashboard.
package main

import "lifeexp/internal/cli"

func main() {
	cli.Execute()
}
