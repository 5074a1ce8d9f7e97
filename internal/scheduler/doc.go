// Package scheduler создаёт runs по расписаниям: cron-выражения и
// фиксированные интервалы, с идемпотентностью по времени запуска.
package scheduler
