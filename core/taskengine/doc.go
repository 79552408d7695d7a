/*
Task Engine walks every (network, wallet) pair and runs the tasks of the network
for the wallet. Outcomes are simulated: each task kind succeeds with a fixed
probability after a random confirmation latency.

**Traversal**

	for network in networks        // stop check, optional shuffle
	  for wallet in wallets        // stop check, optional shuffle, skip if done
	    for task in network.Tasks  // stop check, 1-3s pause between tasks

A unit whose tasks all succeed appends the network name to the wallet's
completedTasks through the wallet store. A failing task ends that unit only.

**Counters**

	totalTasks = len(networks) * len(wallets)
	completed  = successful + failed + skipped

Units interrupted by a stop are not counted, so completed <= totalTasks.
*/
package taskengine
