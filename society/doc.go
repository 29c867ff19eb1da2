// Package society runs a two-role dialogue that resolves a task.
//
// A Society binds a director, which only instructs, and an executor, which
// only acts, both grounded on the same task text. Step performs one
// half-turn pair: the director reads the executor's last reply and issues an
// instruction, then the executor carries it out. Run drives Steps until the
// director replies with a completion sentinel, an agent terminates or the
// round limit is reached.
//
//	s, err := society.New(task, tool.Names(tools), society.Config{
//		Director: society.RoleConfig{Model: planner},
//		Executor: society.RoleConfig{Model: worker, Tools: tools},
//	})
//	if err != nil {
//		return err
//	}
//	res, err := society.Run(ctx, s, society.WithRoundLimit(10))
package society
