// Copyright (c) 2015-2026 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package prompt

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/sxwallet/sxwallet/internal/zero"
	"github.com/sxwallet/sxwallet/wallet"
	"golang.org/x/term"
)

// stdinIsTerminal reports whether passphrases can be read without echo.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// readPass reads a passphrase without echo when stdin is a terminal, and a
// plain line from reader otherwise.
func readPass(reader *bufio.Reader, out io.Writer) ([]byte, error) {
	if stdinIsTerminal() {
		fd := int(os.Stdin.Fd())
		pass, err := term.ReadPassword(fd)
		fmt.Fprint(out, "\n")
		if err != nil {
			return nil, err
		}
		return bytes.TrimSpace(pass), nil
	}

	line, err := reader.ReadBytes('\n')
	if err != nil && (err != io.EOF || len(line) == 0) {
		return nil, err
	}

	return bytes.TrimSpace(line), nil
}

// promptList prompts the user with the given prefix, list of valid responses,
// and default list entry to use.  The function will repeat the prompt to the
// user until they enter a valid response.
func promptList(reader *bufio.Reader, out io.Writer, prefix string,
	validResponses []string, defaultEntry string) (string, error) {

	// Setup the prompt according to the parameters.
	validStrings := strings.Join(validResponses, "/")
	var prompt string
	if defaultEntry != "" {
		prompt = fmt.Sprintf("%s (%s) [%s]: ", prefix, validStrings,
			defaultEntry)
	} else {
		prompt = fmt.Sprintf("%s (%s): ", prefix, validStrings)
	}

	// Prompt the user until one of the valid responses is given.
	for {
		fmt.Fprint(out, prompt)
		reply, err := reader.ReadString('\n')
		if err != nil && (err != io.EOF || reply == "") {
			return "", err
		}
		reply = strings.TrimSpace(strings.ToLower(reply))
		if reply == "" {
			reply = defaultEntry
		}

		for _, validResponse := range validResponses {
			if reply == validResponse {
				return reply, nil
			}
		}
	}
}

// promptListBool prompts the user for a boolean (yes/no) with the given prefix.
// The function will repeat the prompt to the user until they enter a valid
// reponse.
func promptListBool(reader *bufio.Reader, out io.Writer, prefix string,
	defaultEntry string) (bool, error) {

	// Setup the valid responses.
	valid := []string{"n", "no", "y", "yes"}
	response, err := promptList(reader, out, prefix, valid, defaultEntry)
	if err != nil {
		return false, err
	}
	return response == "yes" || response == "y", nil
}

// PassPrompt prompts the user for a passphrase with the given prefix.  The
// function will ask the user to confirm the passphrase and will repeat the
// prompts until they enter a matching response.
func PassPrompt(reader *bufio.Reader, out io.Writer, prefix string,
	confirm bool) ([]byte, error) {

	// Prompt the user until they enter a passphrase.
	prompt := fmt.Sprintf("%s: ", prefix)
	for {
		fmt.Fprint(out, prompt)
		pass, err := readPass(reader, out)
		if err != nil {
			return nil, err
		}
		if len(pass) == 0 {
			continue
		}

		if !confirm {
			return pass, nil
		}

		fmt.Fprint(out, "Confirm passphrase: ")
		confirmed, err := readPass(reader, out)
		if err != nil {
			return nil, err
		}
		match := bytes.Equal(pass, confirmed)
		zero.Bytes(confirmed)
		if !match {
			zero.Bytes(pass)
			fmt.Fprintln(out, "The entered passphrases do not match")
			continue
		}

		return pass, nil
	}
}

// FeeConfirmer asks the user on the terminal to accept transaction fees
// above a threshold.
type FeeConfirmer struct {
	reader     *bufio.Reader
	out        io.Writer
	autoAccept btcutil.Amount
}

// A compile time check to ensure that FeeConfirmer implements the
// wallet.FeeConfirmer interface.
var _ wallet.FeeConfirmer = (*FeeConfirmer)(nil)

// NewFeeConfirmer returns a confirmer that accepts fees up to autoAccept
// without asking.
func NewFeeConfirmer(reader *bufio.Reader, out io.Writer,
	autoAccept btcutil.Amount) *FeeConfirmer {

	return &FeeConfirmer{
		reader:     reader,
		out:        out,
		autoAccept: autoAccept,
	}
}

// ConfirmFee implements wallet.FeeConfirmer.
func (f *FeeConfirmer) ConfirmFee(ctx context.Context,
	fee btcutil.Amount) (bool, error) {

	if err := ctx.Err(); err != nil {
		return false, err
	}
	if fee <= f.autoAccept {
		return true, nil
	}

	return promptListBool(
		f.reader, f.out,
		fmt.Sprintf("This transaction requires a fee of %v. Send it?",
			fee),
		"no",
	)
}

// UnlockPrompt asks the user on the terminal for the wallet passphrase. An
// empty answer declines the unlock.
type UnlockPrompt struct {
	reader      *bufio.Reader
	out         io.Writer
	stakingOnly bool
}

// A compile time check to ensure that UnlockPrompt implements the
// wallet.UnlockPrompt interface.
var _ wallet.UnlockPrompt = (*UnlockPrompt)(nil)

// NewUnlockPrompt returns an unlock prompt. If stakingOnly is set the
// wallet is unlocked for staking only.
func NewUnlockPrompt(reader *bufio.Reader, out io.Writer,
	stakingOnly bool) *UnlockPrompt {

	return &UnlockPrompt{
		reader:      reader,
		out:         out,
		stakingOnly: stakingOnly,
	}
}

// PromptUnlock implements wallet.UnlockPrompt.
func (u *UnlockPrompt) PromptUnlock(
	ctx context.Context) (*wallet.UnlockRequest, error) {

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fmt.Fprint(u.out, "Enter the wallet passphrase to unlock it: ")
	pass, err := readPass(u.reader, u.out)
	if err != nil {
		return nil, err
	}
	if len(pass) == 0 {
		return nil, nil
	}

	return &wallet.UnlockRequest{
		Passphrase:  pass,
		StakingOnly: u.stakingOnly,
	}, nil
}

// Confirm asks the user a yes/no question, repeating it until a valid
// answer is given. An empty answer selects defaultEntry.
func Confirm(reader *bufio.Reader, out io.Writer, question string,
	defaultEntry string) (bool, error) {

	return promptListBool(reader, out, question, defaultEntry)
}
