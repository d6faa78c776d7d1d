package config

type WorkerKeyStruct struct {
	PersistLockEventsQueue string
}

var WorkerKey = &WorkerKeyStruct{
	PersistLockEventsQueue: "persist_lock_events_queue",
}
