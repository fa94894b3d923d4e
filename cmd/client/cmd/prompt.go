package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// promptCredentials asks for whatever of email and password is still empty.
func promptCredentials(in io.Reader, out io.Writer, email, password string) (string, string, error) {
	scanner := bufio.NewScanner(in)
	if email == "" {
		fmt.Fprint(out, "Email: ")
		if !scanner.Scan() {
			return "", "", inputErr(scanner)
		}
		email = strings.TrimSpace(scanner.Text())
	}
	if password == "" {
		fmt.Fprint(out, "Password: ")
		if !scanner.Scan() {
			return "", "", inputErr(scanner)
		}
		password = scanner.Text()
	}
	return email, password, nil
}

func inputErr(s *bufio.Scanner) error {
	if err := s.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	return errors.New("read input: unexpected end of input")
}
