// Package planner строит workflow-графы из текстовых описаний задач
// через OpenAI-совместимый API. Опционален: без OPENAI_API_KEY
// соответствующие эндпоинты отвечают ошибкой конфигурации.
package planner
