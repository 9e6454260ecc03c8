package config

type WorkerKeyStruct struct {
	PersistGroupEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistGroupEventsQueue: "persist_group_events_queue",
}
