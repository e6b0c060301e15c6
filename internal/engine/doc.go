// Package engine executes a single run of a dataflow. The scheduler is a
// cooperative, queue-driven state machine: the run queue is seeded with
// the graph's sinks and each activation dequeues one step, runs one unit
// of its work, and re-queues neighbours according to the status the step
// reports. Blocked or waiting steps push demand upstream; finished steps
// release their downstreams; flowing steps hand records to flow
// downstreams. There is no parallelism: interleaving comes entirely from
// the queue.
package engine
