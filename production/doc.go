/*
Package production runs item networks on top of a foundry scheduler.

Buildings are plain entities. A Placement anchors them on the tile grid, Acceptor and Ejector
slots move items between neighbouring tiles, and a Processor turns inputs into outputs once per
charge. Buildings never reference each other: an ejector finds its target through the acceptor
slot listening on the adjacent tile, looked up fresh every tick.

Per tick the installed systems run in this order:

	pending       retry outputs that found their ejector slot taken
	checker-goal  drop checker outputs that were classified against an old goal
	ejector       push ejector items into free neighbouring acceptor slots
	emitter       produce new items on schedule
	processor     finish charges, take inputs and start new charges

An item whose target slot is full stays where it is. Nothing is ever dropped, so a blocked line
backs up to its source.

Basic usage:

	network, err := production.Install(sched, production.DefaultSettings(), logger)
	if err != nil {
		return err
	}
	network.Build(production.EmitterAt(0, 0, production.Right, shape.MustDecode("CuCuCuCu"), 1, 0))
	network.Build(production.BeltAt(1, 0, production.Right))
	network.Build(production.CheckerAt(2, 0, production.Right))
	network.Build(production.HubAt(3, -1, 4))
*/
package production
