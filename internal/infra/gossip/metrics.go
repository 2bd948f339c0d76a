package gossip

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the SWIM and gossip loops, registered via promauto
// and exposed on the debug HTTP /metrics mount.

var (
	probesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gossipd",
		Subsystem: "swim",
		Name:      "probes_sent_total",
		Help:      "Total direct Ping probes sent.",
	})

	indirectProbesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gossipd",
		Subsystem: "swim",
		Name:      "indirect_probes_sent_total",
		Help:      "Total PingReq indirect probes sent.",
	})

	suspectTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gossipd",
		Subsystem: "swim",
		Name:      "suspect_transitions_total",
		Help:      "Total times a member was marked Suspect.",
	})

	confirmTransitions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gossipd",
		Subsystem: "swim",
		Name:      "confirm_transitions_total",
		Help:      "Total times a member was marked Confirmed.",
	})

	refutations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gossipd",
		Subsystem: "swim",
		Name:      "refutations_total",
		Help:      "Total times this node refuted a false suspicion of itself.",
	})

	membersAlive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "gossipd",
		Subsystem: "swim",
		Name:      "members_alive",
		Help:      "Current count of Alive/Suspect members in the local view.",
	})

	rumorsDisseminated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gossipd",
		Subsystem: "gossip",
		Name:      "rumors_disseminated_total",
		Help:      "Total rumors sent to a peer over the gossip push transport, by rumor kind.",
	}, []string{"kind"})

	rumorsReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gossipd",
		Subsystem: "gossip",
		Name:      "rumors_received_total",
		Help:      "Total rumors received over the gossip pull transport, by rumor kind.",
	}, []string{"kind"})

	electionsFinished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "gossipd",
		Subsystem: "election",
		Name:      "finished_total",
		Help:      "Total elections this node observed reach Finished status.",
	})
)
