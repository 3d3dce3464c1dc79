package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/ethereum-optimism/infra/op-keyword/arguments"
	"github.com/ethereum-optimism/infra/op-keyword/keyword"
	"github.com/ethereum-optimism/infra/op-keyword/metrics"
	"github.com/ethereum-optimism/infra/op-keyword/types"
	"github.com/ethereum-optimism/infra/op-keyword/variables"
)

// Server serves the keywords of a keyword source to remote clients
type Server struct {
	source keyword.Source
	rpc    *rpc.Server
	log    log.Logger
}

var _ http.Handler = (*Server)(nil)

// NewServer creates a server for source
func NewServer(source keyword.Source, logger log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.New()
	}
	s := &Server{
		source: source,
		rpc:    rpc.NewServer(),
		log:    logger.New("library", source.Name()),
	}
	if err := s.rpc.RegisterName("remote", &service{server: s}); err != nil {
		return nil, fmt.Errorf("registering remote service: %w", err)
	}
	return s, nil
}

// ServeHTTP serves JSON-RPC over HTTP
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.rpc.ServeHTTP(w, r)
}

// DialInProc returns a client connected to the server without a network
func (s *Server) DialInProc() *rpc.Client {
	return rpc.DialInProc(s.rpc)
}

// Stop stops serving requests
func (s *Server) Stop() {
	s.rpc.Stop()
}

// service holds the methods exposed under the "remote" namespace
type service struct {
	server *Server
}

func (s *service) GetKeywordNames() []string {
	return s.server.source.KeywordNames()
}

func (s *service) GetKeywordArguments(name string) ([]string, error) {
	spec, ok := s.server.source.Spec(name)
	if !ok {
		return nil, fmt.Errorf("no keyword with name '%s'", name)
	}
	return Tokens(spec), nil
}

func (s *service) RunKeyword(ctx context.Context, name string, args []json.RawMessage, named map[string]json.RawMessage) *Result {
	positional, err := decodeAll(args)
	if err != nil {
		return failed(err)
	}
	namedValues := make(map[string]any, len(named))
	for k, raw := range named {
		value, err := FromRemote(raw)
		if err != nil {
			return failed(fmt.Errorf("argument '%s': %w", k, err))
		}
		namedValues[k] = value
	}

	s.server.log.Debug("Running keyword", "keyword", name, "args", len(positional), "named", len(namedValues))
	value, err := s.server.invoke(ctx, name, positional, namedValues)
	if err != nil {
		metrics.RecordErrorDetails("remote", err)
		return failed(err)
	}
	ret, err := json.Marshal(ToRemote(value))
	if err != nil {
		return failed(fmt.Errorf("Returning value failed: %w", err))
	}
	return &Result{Status: types.StatusPass.String(), Return: ret}
}

func (s *Server) invoke(ctx context.Context, name string, positional []any, named map[string]any) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &panicError{msg: fmt.Sprintf("keyword '%s' panicked: %v", name, r), stack: string(debug.Stack())}
		}
	}()
	if _, ok := s.source.Spec(name); !ok {
		return nil, keyword.Fail("No keyword with name '%s' found.", name)
	}
	return s.source.Invoke(ctx, name, positional, named)
}

type panicError struct {
	msg   string
	stack string
}

func (e *panicError) Error() string {
	return e.msg
}

func failed(err error) *Result {
	result := &Result{
		Status: types.StatusFail.String(),
		Error:  keyword.Message(err),
		Fatal:  keyword.IsFatal(err),
	}
	if p, ok := err.(*panicError); ok {
		result.Traceback = p.stack
	}
	return result
}

// Tokens describes spec in the argument token form of the protocol:
// "name", "name=default" and "*vararg". A spec that only bounds the argument
// count gets generated names. Nil means any arguments are accepted.
func Tokens(spec arguments.ArgumentSpec) []string {
	if spec.Vararg == arguments.UnknownVararg {
		return nil
	}
	if len(spec.Names) == 0 && !spec.HasVararg() {
		return bandTokens(spec.MinArgs, spec.MaxArgs)
	}
	tokens := make([]string, 0, len(spec.Names)+1)
	mandatory := spec.MandatoryCount()
	for i, name := range spec.Names {
		if i < mandatory {
			tokens = append(tokens, name)
			continue
		}
		tokens = append(tokens, name+"="+variables.Stringify(spec.Defaults[i-mandatory]))
	}
	if spec.HasVararg() {
		tokens = append(tokens, "*"+spec.Vararg)
	}
	return tokens
}

func bandTokens(min, max int) []string {
	tokens := []string{}
	for i := 1; i <= min; i++ {
		tokens = append(tokens, fmt.Sprintf("arg%d", i))
	}
	if max == arguments.Unbounded {
		return append(tokens, "*args")
	}
	for i := min + 1; i <= max; i++ {
		tokens = append(tokens, fmt.Sprintf("arg%d=", i))
	}
	return tokens
}
