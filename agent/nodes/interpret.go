package dispatchnode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/record-agent/agent/contract"
)

func Interpret(
	ctx context.Context,
	in *GraphState,
	interpreter contractx.Interpreter,
	tools contractx.ToolGateway,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.enter(contractx.PhaseInterpreting)
	out, err := interpreter.Interpret(ctx, in.Text, tools.Infos())
	if err != nil {
		return nil, err
	}
	in.Interpretation = out
	return in, nil
}
