package scraper

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// maxCommLen is TASK_COMM_LEN without the trailing NUL.
const maxCommLen = 15

// TasksEntry is the iterator program that walks every open file of every
// task.
const TasksEntry = "iter_tasks"

// taskHeader is the column header printed at the start of a session.
var taskHeader = []string{"tgid", "gid", "fd", "file"}

// Task is one open file descriptor of a task.
type Task struct {
	// Exe is the base name of the task's executable.
	Exe  string `json:"exe"`
	Comm string `json:"comm"`
	Tgid int32  `json:"tgid"`
	Pid  int32  `json:"pid"`
	FD   int32  `json:"fd"`
	// FileOps is the kernel address of the file's operations table, which
	// identifies the kind of file (socket, pipe, regular file).
	FileOps uint64 `json:"file_ops"`
}

// ParseTask parses a line of the form
//
//	exe (comm) tgid pid fd fileops
//
// where fileops is hexadecimal. The column header yields [SkipLine].
func ParseTask(line string) (Task, error) {
	if slices.Equal(strings.Fields(line), taskHeader) {
		return Task{}, SkipLine
	}

	end := strings.LastIndex(line, ") ")
	open := -1
	if end >= 0 {
		open = commStart(line, end)
	}
	if open < 0 {
		return Task{}, &DecodeError{Input: line, Err: errors.New("missing (comm)")}
	}

	fields := strings.Fields(line[end+2:])
	if len(fields) != 4 {
		return Task{}, &DecodeError{Input: line, Err: fmt.Errorf("want 4 numeric fields, got %d", len(fields))}
	}

	var ids [3]int32
	for i, f := range fields[:3] {
		n, err := strconv.ParseInt(f, 10, 32)
		if err != nil {
			return Task{}, &DecodeError{Input: line, Err: err}
		}
		ids[i] = int32(n)
	}
	fops, err := strconv.ParseUint(fields[3], 16, 64)
	if err != nil {
		return Task{}, &DecodeError{Input: line, Err: err}
	}

	return Task{
		Exe:     line[:open-1],
		Comm:    line[open+1 : end],
		Tgid:    ids[0],
		Pid:     ids[1],
		FD:      ids[2],
		FileOps: fops,
	}, nil
}

// DecodeTasks decodes an iter_tasks session.
var DecodeTasks = Lines(ParseTask)

// NewTaskScraper returns a scraper listing open file descriptors per task.
func NewTaskScraper(obj Object, opts ...Option) *Scraper[Task] {
	return New(obj, TasksEntry, DecodeTasks, opts...)
}

// commStart returns the index of the " (" parenthesis that opens the comm
// closed at end, or -1. Only the last maxCommLen bytes before end can hold
// the comm. A balanced match wins; otherwise the leftmost " (" in range.
func commStart(line string, end int) int {
	lo := max(end-maxCommLen-1, 1)
	depth, leftmost := 0, -1
	for i := end; i >= lo; i-- {
		switch line[i] {
		case ')':
			depth++
		case '(':
			depth--
			if line[i-1] != ' ' {
				continue
			}
			if depth == 0 {
				return i
			}
			leftmost = i
		}
	}
	return leftmost
}
