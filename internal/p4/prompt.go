package p4

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ChooseDepot presents a numbered menu of depot names on w and reads the
// selection from r, re-prompting until the input is a valid entry
func ChooseDepot(r io.Reader, w io.Writer, names []string) (string, error) {
	if len(names) == 0 {
		return "", fmt.Errorf("no depots to choose from")
	}

	fmt.Fprintln(w, "Available depots:")
	for i, name := range names {
		fmt.Fprintf(w, "%d. %s\n", i+1, name)
	}

	scanner := bufio.NewScanner(r)
	for {
		fmt.Fprint(w, "\nEnter the number of the depot you want to select: ")
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return "", fmt.Errorf("read selection: %w", err)
			}
			return "", fmt.Errorf("input closed before a depot was selected")
		}

		choice, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil {
			fmt.Fprintln(w, "Invalid input. Please enter a number.")
			continue
		}
		if choice < 1 || choice > len(names) {
			fmt.Fprintln(w, "Invalid choice. Please try again.")
			continue
		}

		return names[choice-1], nil
	}
}
