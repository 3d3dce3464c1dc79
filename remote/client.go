// Package remote runs keywords of libraries served by another process. The
// protocol is JSON-RPC over any transport supported by go-ethereum's rpc
// package, with the methods remote_getKeywordNames, remote_getKeywordArguments
// and remote_runKeyword.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/ethereum-optimism/infra/op-keyword/keyword"
	"github.com/ethereum-optimism/infra/op-keyword/library"
	"github.com/ethereum-optimism/infra/op-keyword/types"
)

const (
	methodKeywordNames     = "remote_getKeywordNames"
	methodKeywordArguments = "remote_getKeywordArguments"
	methodRunKeyword       = "remote_runKeyword"
)

// Result is the outcome of a remote keyword
type Result struct {
	Status      string          `json:"status"`
	Output      string          `json:"output,omitempty"`
	Return      json.RawMessage `json:"return,omitempty"`
	Error       string          `json:"error,omitempty"`
	Traceback   string          `json:"traceback,omitempty"`
	Fatal       bool            `json:"fatal,omitempty"`
	Continuable bool            `json:"continuable,omitempty"`
}

// Error is a keyword failure reported by a remote server
type Error struct {
	Message     string
	Traceback   string
	Continuable bool
}

func (e *Error) Error() string {
	return e.Message
}

// Client is a DynamicLibrary backed by a remote keyword server. Keyword names
// and arguments are fetched once when the client is created.
type Client struct {
	url    string
	rpc    *rpc.Client
	log    log.Logger
	names  []string
	tokens map[string][]string
}

var _ library.DynamicLibrary = (*Client)(nil)

// Library is a keyword source served by a remote keyword server
type Library struct {
	*library.Dynamic
	client *Client
}

// Dial connects to a remote keyword server at url and returns it as a keyword
// source named name.
func Dial(ctx context.Context, name string, url string, logger log.Logger) (*Library, error) {
	client, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connecting to remote server at %s failed: %w", url, err)
	}
	lib, err := NewLibrary(ctx, name, url, client, logger)
	if err != nil {
		client.Close()
		return nil, err
	}
	return lib, nil
}

// NewLibrary queries a connected remote server for its keywords
func NewLibrary(ctx context.Context, name string, url string, client *rpc.Client, logger log.Logger) (*Library, error) {
	c, err := NewClient(ctx, url, client, logger)
	if err != nil {
		return nil, err
	}
	dynamic, err := library.NewDynamic(name, c)
	if err != nil {
		return nil, err
	}
	return &Library{Dynamic: dynamic, client: c}, nil
}

// Close closes the connection to the server
func (l *Library) Close() {
	l.client.Close()
}

// NewClient queries a connected remote server for its keywords and their arguments
func NewClient(ctx context.Context, url string, client *rpc.Client, logger log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.New()
	}
	c := &Client{
		url:    url,
		rpc:    client,
		log:    logger.New("remote", url),
		tokens: make(map[string][]string),
	}
	if err := client.CallContext(ctx, &c.names, methodKeywordNames); err != nil {
		return nil, fmt.Errorf("getting keyword names from remote server at %s failed: %w", url, err)
	}
	for _, name := range c.names {
		var tokens []string
		if err := client.CallContext(ctx, &tokens, methodKeywordArguments, name); err != nil {
			c.log.Warn("Getting keyword arguments failed, accepting any arguments", "keyword", name, "err", err)
			tokens = nil
		}
		c.tokens[types.NormalizeName(name)] = tokens
	}
	c.log.Debug("Connected to remote server", "keywords", len(c.names))
	return c, nil
}

func (c *Client) KeywordNames() []string {
	return c.names
}

// KeywordArguments returns the argument tokens reported by the server, nil
// when the server could not describe the keyword.
func (c *Client) KeywordArguments(name string) []string {
	return c.tokens[types.NormalizeName(name)]
}

// RunKeyword runs a keyword on the server. Transport failures are ordinary
// keyword failures; a malformed response, a fatal result or an invalid status
// stops the run.
func (c *Client) RunKeyword(ctx context.Context, name string, args []any, named map[string]any) (any, error) {
	remoteArgs := make([]any, len(args))
	for i, arg := range args {
		remoteArgs[i] = ToRemote(arg)
	}
	remoteNamed := make(map[string]any, len(named))
	for k, v := range named {
		remoteNamed[k] = ToRemote(v)
	}

	var result Result
	if err := c.rpc.CallContext(ctx, &result, methodRunKeyword, name, remoteArgs, remoteNamed); err != nil {
		if ctx.Err() != nil {
			return nil, context.Cause(ctx)
		}
		if isMalformed(err) {
			return nil, &keyword.FrameworkError{
				Message: fmt.Sprintf("Invalid remote result: %v", err),
				Err:     err,
			}
		}
		return nil, fmt.Errorf("Connection to remote server broken: %w", err)
	}
	if result.Output != "" {
		c.log.Info("Remote keyword output", "keyword", name, "output", result.Output)
	}
	return result.value()
}

// Close closes the connection to the server
func (c *Client) Close() {
	c.rpc.Close()
}

func (r *Result) value() (any, error) {
	switch r.Status {
	case types.StatusPass.String():
		value, err := FromRemote(r.Return)
		if err != nil {
			return nil, &keyword.FrameworkError{
				Message: fmt.Sprintf("Processing remote keyword result failed: %v", err),
				Err:     err,
			}
		}
		return value, nil
	case types.StatusFail.String():
		msg := r.Error
		if msg == "" {
			msg = "Remote keyword failed without a message."
		}
		if r.Fatal {
			return nil, &keyword.FrameworkError{Message: msg}
		}
		return nil, &Error{Message: msg, Traceback: r.Traceback, Continuable: r.Continuable}
	default:
		return nil, keyword.Fatal("Invalid remote result status '%s'.", r.Status)
	}
}

// isMalformed reports whether a call failed because the response could not be
// decoded into a Result
func isMalformed(err error) bool {
	var typeErr *json.UnmarshalTypeError
	var syntaxErr *json.SyntaxError
	return errors.As(err, &typeErr) || errors.As(err, &syntaxErr)
}
