package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/saif-almayahi/muroor/internal/muroorcli"
)

func main() {
	if err := muroorcli.Execute(os.Args[1:]); err != nil {
		if errors.Is(err, muroorcli.ErrUsage) {
			fmt.Fprintln(os.Stderr, err)
			fmt.Fprintln(os.Stderr)
			muroorcli.PrintUsage(os.Stderr)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
