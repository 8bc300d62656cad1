/*
Package config loads the groupsched configuration file.

Every key is optional; missing keys keep the values of Default:

	affinity:
	  source: file          # file | bolt
	  path: /jars/config.txt
	dataDir: ./groupsched-data
	systemGroupID: 1
	systemPrefix: "__"
	strategy: single-slot   # single-slot | spread
	interval: 10s
	historyRetention: 100
	log:
	  level: info
	  json: false
	api:
	  httpAddr: 127.0.0.1:9090
	  grpcAddr: 127.0.0.1:9091

Unknown keys are rejected so that a misspelt key does not silently fall
back to its default.
*/
package config
