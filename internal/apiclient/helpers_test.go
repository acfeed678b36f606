package apiclient

import "time"

func farFuture() time.Time { return time.Now().Add(time.Hour) }
