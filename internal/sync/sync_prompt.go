package sync

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// TerminalJudge prompts the operator for each conflicting path, showing both
// sides' size and modification time, and accepts keep-local / keep-remote /
// skip. It is strictly sequential; nothing executes while it waits.
type TerminalJudge struct {
	In  io.Reader
	Out io.Writer

	// One reader for the judge's lifetime: with piped input or type-ahead
	// it may buffer answers for conflicts that have not been shown yet.
	reader *bufio.Reader
}

func (j *TerminalJudge) Judge(op *Operation) (Resolution, error) {
	fmt.Fprintf(j.Out, "\nConflict: %s changed on both sides\n", op.Path)
	fmt.Fprintf(j.Out, "  local:  %s\n", describeSide(op.Local))
	fmt.Fprintf(j.Out, "  remote: %s\n", describeSide(op.Remote))

	if j.reader == nil {
		j.reader = bufio.NewReader(j.In)
	}
	for {
		fmt.Fprintf(j.Out, "Keep [l]ocal, keep [r]emote, or [s]kip? ")

		line, err := j.reader.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("read answer: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "l", "local":
			return KeepLocal, nil
		case "r", "remote":
			return KeepRemote, nil
		case "s", "skip":
			return SkipPath, nil
		}
	}
}

func describeSide(e *FileEntry) string {
	if e == nil {
		return "absent"
	}
	return fmt.Sprintf("%s, modified %s",
		humanize.Bytes(uint64(e.Size)),
		e.ModifiedAt.Format(time.RFC3339))
}
